package uploadhttp

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sir_venger/chunkd/internal/models"
	"github.com/sir_venger/chunkd/internal/usecase/uploadsvc"
	"github.com/sir_venger/chunkd/pkg/httperrors"
)

// merge запускает склейку и транслирует события в SSE. GET, потому что
// EventSource умеет только его.
func (a *Server) merge(w http.ResponseWriter, r *http.Request) {
	total, err := strconv.Atoi(chi.URLParam(r, "total"))
	if err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %q", models.ErrInvalidTotal, chi.URLParam(r, "total")))
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	req := uploadsvc.MergeRequest{
		UploadID:  pathParam(r, "id"),
		FinalName: pathParam(r, "name"),
		Total:     total,
	}
	events, err := a.opts.Uploads.Merge(r.Context(), req)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	stream.open()
	a.pump(r, stream, events, req)
}

// pump пересылает события клиенту до терминального. Если клиент ушёл,
// канал дочитывается в фоне, чтобы склейка не встала на отправке.
func (a *Server) pump(r *http.Request, stream *eventStream, events <-chan models.Event, req uploadsvc.MergeRequest) {
	ticker := time.NewTicker(a.opts.Heartbeat)
	defer ticker.Stop()

	abandon := func(reason string) {
		a.log.Info("merge stream abandoned", "upload_id", req.UploadID, "name", req.FinalName, "reason", reason)
		go drain(events)
	}

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := stream.send(e); err != nil {
				abandon(err.Error())
				return
			}
			if e.Kind.Terminal() {
				go drain(events)
				return
			}
		case <-ticker.C:
			if err := stream.heartbeat(); err != nil {
				abandon(err.Error())
				return
			}
		case <-r.Context().Done():
			abandon("client disconnected")
			return
		}
	}
}

func drain(events <-chan models.Event) {
	for range events {
	}
}
