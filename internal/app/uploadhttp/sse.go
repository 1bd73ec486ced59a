package uploadhttp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sir_venger/chunkd/internal/models"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// eventStream пишет text/event-stream. Тип события кладётся в поле id:
// веб-клиент слушает onmessage и разбирает lastEventId.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	return &eventStream{w: w, flusher: f}, nil
}

// open отправляет заголовки ответа.
func (s *eventStream) open() {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
}

func (s *eventStream) send(e models.Event) error {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\n", e.Kind)
	for _, line := range strings.Split(e.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := s.w.Write([]byte(b.String())); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// heartbeat держит соединение живым через прокси; клиент комментарии игнорирует.
func (s *eventStream) heartbeat() error {
	if _, err := s.w.Write([]byte(":\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
