// Package uploadclient — клиент сервиса загрузки частями: режет файл,
// параллельно отправляет части с XXH32 и ждёт склейки по SSE.
package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/chunkd/pkg/uploadproto"
)

const (
	// DefaultChunkSize совпадает с размером части веб-клиента.
	DefaultChunkSize = 5_000_000
	defaultParallel  = 4
)

// ErrHashMismatch — сервер посчитал другой хеш; часть стоит отправить ещё раз.
var ErrHashMismatch = errors.New("hash mismatch")

// StatusError — неожиданный HTTP-ответ сервера.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.Code, e.Body)
}

// MergeError — склейка завершилась терминальным событием, отличным от done.
type MergeError struct {
	Kind    string
	Message string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge failed (%s): %s", e.Kind, e.Message)
}

// Status — ответ GET /uploads/{id}/status.
type Status struct {
	UploadID  string   `json:"upload_id"`
	State     string   `json:"state"`
	Chunks    int      `json:"chunks"`
	Total     int      `json:"total"`
	Bytes     int64    `json:"bytes"`
	Sequences []uint32 `json:"sequences"`
	Corrupt   []string `json:"corrupt"`
}

// Options — настройки клиента.
type Options struct {
	BaseURL    string
	Token      string
	ChunkSize  int64
	Parallel   int
	HTTPClient *http.Client
	// Progress — куда рисовать прогресс; nil — не рисовать.
	Progress io.Writer
}

type Client struct {
	opts Options
	c    *http.Client
}

// New создаёт клиента с дефолтами для незаданных полей.
func New(opts Options) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Parallel <= 0 {
		opts.Parallel = defaultParallel
	}
	c := opts.HTTPClient
	if c == nil {
		c = &http.Client{}
	}

	return &Client{opts: opts, c: c}
}

// UploadChunk отправляет одну часть с её XXH32.
func (h *Client) UploadChunk(ctx context.Context, uploadID string, seq uint32, data []byte) error {
	return h.uploadChunk(ctx, uploadID, seq, data, nil)
}

func (h *Client) uploadChunk(ctx context.Context, uploadID string, seq uint32, data []byte, bar *progressBar) error {
	u := fmt.Sprintf(uploadproto.ChunkPathFormat, h.opts.BaseURL, url.PathEscape(uploadID), seq)

	// пустое тело только как http.NoBody: иначе net/http уйдёт в chunked
	// без Content-Length, и сервер ответит 400
	var body io.Reader = http.NoBody
	if len(data) > 0 {
		body = bytes.NewReader(data)
		if bar != nil {
			body = io.TeeReader(body, progressWriter{bar: bar})
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(uploadproto.HeaderToken, h.opts.Token)
	req.Header.Set(uploadproto.HeaderChunkHash, strconv.FormatUint(uint64(xxhash.Checksum32(data)), 10))

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		return nil
	}

	msg := readMessage(resp.Body)
	if resp.StatusCode == http.StatusBadRequest && strings.Contains(msg, "hash mismatch") {
		return fmt.Errorf("%w: chunk %d", ErrHashMismatch, seq)
	}
	return &StatusError{Code: resp.StatusCode, Body: msg}
}

// Merge просит сервер склеить части и ждёт терминального события.
// onProgress, если задан, получает номер каждой склеенной части.
func (h *Client) Merge(ctx context.Context, uploadID, name string, total int, onProgress func(n int)) (string, error) {
	u := fmt.Sprintf(uploadproto.MergePathFormat, h.opts.BaseURL, url.PathEscape(uploadID), url.PathEscape(name), total)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set(uploadproto.HeaderToken, h.opts.Token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := h.c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: readMessage(resp.Body)}
	}

	var (
		location string
		result   error = io.ErrUnexpectedEOF
	)
	err = readEvents(resp.Body, func(kind, data string) bool {
		switch kind {
		case "progress":
			if n, err := strconv.Atoi(data); err == nil && onProgress != nil {
				onProgress(n)
			}
			return true
		case "done":
			location, result = data, nil
		default:
			result = &MergeError{Kind: kind, Message: data}
		}
		return false
	})
	if err != nil {
		return "", err
	}
	if result != nil {
		return "", result
	}

	return location, nil
}

// Status запрашивает состояние загрузки.
func (h *Client) Status(ctx context.Context, uploadID, name string, total int) (Status, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if total > 0 {
		q.Set("total", strconv.Itoa(total))
	}
	u := fmt.Sprintf(uploadproto.StatusPathFormat, h.opts.BaseURL, url.PathEscape(uploadID))
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Status{}, err
	}
	req.Header.Set(uploadproto.HeaderToken, h.opts.Token)

	resp, err := h.c.Do(req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, &StatusError{Code: resp.StatusCode, Body: readMessage(resp.Body)}
	}

	var st Status
	if err = json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

// UploadFile загружает файл по частям под именем name (пустое — имя файла)
// и возвращает адрес опубликованного результата.
func (h *Client) UploadFile(ctx context.Context, path, name string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if name == "" {
		name = filepath.Base(path)
	}

	return h.Upload(ctx, f, info.Size(), name)
}

// Upload режет r на части и загружает их параллельно, затем склеивает.
func (h *Client) Upload(ctx context.Context, r io.ReaderAt, size int64, name string) (string, error) {
	uploadID := uuid.NewString()
	total := max(int((size+h.opts.ChunkSize-1)/h.opts.ChunkSize), 1)

	bar := newProgressBar(h.opts.Progress, fmt.Sprintf("Uploading %s", name), size, humanBytes)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.Parallel)
	for i := 0; i < total; i++ {
		seq := uint32(i + 1)
		off := int64(i) * h.opts.ChunkSize
		n := min(h.opts.ChunkSize, size-off)

		g.Go(func() error {
			buf := make([]byte, n)
			if _, err := r.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read chunk %d: %w", seq, err)
			}
			return h.sendWithRetry(gctx, uploadID, seq, buf, bar)
		})
	}
	if err := g.Wait(); err != nil {
		bar.Fail(err)
		return "", err
	}
	bar.Finish()

	mergeBar := newProgressBar(h.opts.Progress, fmt.Sprintf("Merging %s", name), int64(total), chunkCount)
	location, err := h.Merge(ctx, uploadID, name, total, func(n int) { mergeBar.Set(int64(n)) })
	if err != nil {
		mergeBar.Fail(err)
		return "", err
	}
	mergeBar.Finish()

	return location, nil
}

// sendWithRetry повторяет часть один раз, если сервер не сошёлся по хешу.
func (h *Client) sendWithRetry(ctx context.Context, uploadID string, seq uint32, data []byte, bar *progressBar) error {
	err := h.uploadChunk(ctx, uploadID, seq, data, bar)
	if !errors.Is(err, ErrHashMismatch) {
		return err
	}

	bar.Add(-int64(len(data)))
	return h.uploadChunk(ctx, uploadID, seq, data, bar)
}

func readMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	return strings.TrimSpace(string(b))
}
