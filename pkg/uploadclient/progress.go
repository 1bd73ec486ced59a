package uploadclient

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	progressBarWidth     = 32
	progressRenderPeriod = 120 * time.Millisecond
)

// progressBar рисует ASCII-индикатор. Nil-бар ничего не делает — так
// клиент работает и без вывода прогресса.
type progressBar struct {
	out           io.Writer
	prefix        string
	total         int64
	current       int64
	format        func(int64) string
	lastRender    time.Time
	lastLineWidth int
	finished      bool
	mu            sync.Mutex
}

func newProgressBar(out io.Writer, prefix string, total int64, format func(int64) string) *progressBar {
	if out == nil {
		return nil
	}
	return &progressBar{
		out:    out,
		prefix: prefix,
		total:  total,
		format: format,
	}
}

// Add увеличивает счётчик; безопасно из нескольких горутин.
func (p *progressBar) Add(n int64) {
	if p == nil || n == 0 {
		return
	}
	p.mu.Lock()
	p.current += n
	p.mu.Unlock()
	p.render(false)
}

// Set выставляет абсолютное значение.
func (p *progressBar) Set(n int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.current = n
	p.mu.Unlock()
	p.render(false)
}

func (p *progressBar) render(force bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	now := time.Now()
	if !force && now.Sub(p.lastRender) < progressRenderPeriod {
		return
	}
	p.lastRender = now
	p.writeLocked(p.lineLocked(), "")
}

func (p *progressBar) lineLocked() string {
	var b strings.Builder
	b.Grow(len(p.prefix) + 64)
	b.WriteString(p.prefix)
	b.WriteByte(' ')

	if p.total <= 0 {
		b.WriteString(p.format(p.current))
		return b.String()
	}

	ratio := min(float64(p.current)/float64(p.total), 1)
	filled := min(int(ratio*progressBarWidth+0.5), progressBarWidth)
	b.WriteByte('[')
	b.WriteString(strings.Repeat("=", filled))
	b.WriteString(strings.Repeat(" ", progressBarWidth-filled))
	fmt.Fprintf(&b, "] %3d%% %s/%s", int(ratio*100+0.5), p.format(p.current), p.format(p.total))
	return b.String()
}

// writeLocked перерисовывает строку, затирая хвост предыдущей.
func (p *progressBar) writeLocked(line, tail string) {
	width := len(line) + len(tail)
	padding := ""
	if p.lastLineWidth > width {
		padding = strings.Repeat(" ", p.lastLineWidth-width)
	}
	p.lastLineWidth = width
	fmt.Fprintf(p.out, "\r%s%s%s", line, tail, padding)
}

func (p *progressBar) Finish() {
	p.complete(nil)
}

func (p *progressBar) Fail(err error) {
	p.complete(err)
}

func (p *progressBar) complete(err error) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true

	tail := " ✓"
	if err != nil {
		tail = fmt.Sprintf(" ✗ %v", err)
	}
	p.writeLocked(p.lineLocked(), tail)
	fmt.Fprintln(p.out)
}

// progressWriter считает байты, прошедшие через io.TeeReader.
type progressWriter struct {
	bar *progressBar
}

func (w progressWriter) Write(p []byte) (int, error) {
	w.bar.Add(int64(len(p)))
	return len(p), nil
}

func humanBytes(v int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	value := float64(v)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", v, units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}

func chunkCount(v int64) string {
	return strconv.FormatInt(v, 10)
}
