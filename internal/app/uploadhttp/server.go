package uploadhttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/logging"
	"github.com/sir_venger/chunkd/internal/metrics"
	"github.com/sir_venger/chunkd/internal/usecase/uploadsvc"
)

const (
	defaultMaxBodyBytes = 15_000_000
	defaultHeartbeat    = 15 * time.Second
)

// Options — зависимости и настройки HTTP-слоя.
type Options struct {
	Uploads   uploadsvc.Service
	Chunks    *chunkstore.Store
	Artifacts *chunkstore.ArtifactDir
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	Token        string
	MaxBodyBytes int64
	Heartbeat    time.Duration
	// KeepMismatched оставляет на диске части с неверным хешем.
	KeepMismatched bool
	ServeFiles     bool
	CORSOrigins    []string
	GCTTL          time.Duration
}

// Server обслуживает HTTP API поверх сервиса загрузок.
type Server struct {
	opts Options
	log  *slog.Logger
}

// New создаёт HTTP-обработчик сервиса.
func New(opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = defaultHeartbeat
	}
	if opts.GCTTL <= 0 {
		opts.GCTTL = manualGCTTL
	}
	srv := &Server{
		opts: opts,
		log:  logging.Component(opts.Logger, "http"),
	}

	return srv.routes()
}

// routes регистрирует обработчики загрузки, склейки и служебные.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.log))
	r.Use(middleware.Recoverer)

	if len(a.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "token", "X-Chunk-Hash"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", a.health)
	if a.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.opts.Metrics.Handler())
	}
	if a.opts.ServeFiles {
		r.Get("/files/{name}", a.serveFile)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(requireToken(a.opts.Token))

		pr.With(limitBody(a.opts.MaxBodyBytes)).Post("/multi/{id}/{num}", a.receiveChunk)
		pr.Get("/done/{id}/{name}/{total}", a.merge)
		pr.Get("/uploads/{id}/status", a.status)
		pr.Get("/artifacts/{name}", a.artifact)
		pr.Post("/admin/gc", a.gcOnce)
	})

	return r
}
