package uploadclient

import (
	"bufio"
	"io"
	"strings"
)

// readEvents разбирает text/event-stream и вызывает fn на каждое событие.
// Тип события сервер кладёт в поле id. fn возвращает false, чтобы остановиться.
func readEvents(r io.Reader, fn func(kind, data string) bool) error {
	sc := bufio.NewScanner(r)

	var (
		kind string
		data []string
	)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if kind == "" && data == nil {
				continue
			}
			if !fn(kind, strings.Join(data, "\n")) {
				return nil
			}
			kind, data = "", nil
		case strings.HasPrefix(line, ":"):
			// heartbeat
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "id":
				kind = value
			case "data":
				data = append(data, value)
			}
		}
	}

	return sc.Err()
}
