package uploadhttp

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/logging"
	"github.com/sir_venger/chunkd/internal/metrics"
)

const manualGCTTL = 24 * time.Hour

type gcResult struct {
	Removed int `json:"removed"`
}

// gcOnce вручную удаляет брошенные части старше gc_ttl.
func (a *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	if a.opts.Chunks == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	n, err := sweepOnce(a.opts.Chunks, a.opts.GCTTL, a.opts.Metrics, a.log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, gcResult{Removed: n})
}

// StartGC стартует периодическую очистку каталога частей.
// Возвращает функцию остановки, её можно звать несколько раз.
func StartGC(store *chunkstore.Store, ttl, every time.Duration, m *metrics.Metrics, l *slog.Logger) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}
	l = logging.Component(l, "gc")

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				_, _ = sweepOnce(store, ttl, m, l)
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

func sweepOnce(store *chunkstore.Store, ttl time.Duration, m *metrics.Metrics, l *slog.Logger) (int, error) {
	n, err := store.Sweep(time.Now(), ttl)
	m.ObserveSweep(n)
	if err != nil {
		l.Warn("sweep chunk dir", "removed", n, "error", err)
		return n, err
	}
	if n > 0 {
		l.Info("swept abandoned chunks", "removed", n, "ttl", ttl)
	}
	return n, nil
}
