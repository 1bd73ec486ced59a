package uploadhttp

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sir_venger/chunkd/internal/models"
	"github.com/sir_venger/chunkd/pkg/httperrors"
	"github.com/sir_venger/chunkd/pkg/uploadproto"
)

// requestLogger пишет одну строку на запрос.
func requestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
					return
				}
				l.Info("http_request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// requireToken пропускает запрос только с правильным токеном.
// Нет токена — 400, неверный — 401.
func requireToken(secret string) func(http.Handler) http.Handler {
	want := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := requestToken(r)
			if !ok {
				httperrors.Write(w, models.ErrTokenMissing)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				httperrors.Write(w, models.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if v := r.Header.Values(uploadproto.HeaderToken); len(v) > 0 {
		return v[0], true
	}
	if q := r.URL.Query(); q.Has(uploadproto.QueryToken) {
		return q.Get(uploadproto.QueryToken), true
	}
	return "", false
}

// limitBody требует Content-Length не больше limit и дополнительно
// ограничивает само тело — заголовку можно и соврать.
func limitBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		capped := middleware.RequestSize(limit)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			size, err := contentLength(r)
			if err != nil {
				httperrors.Write(w, err)
				return
			}
			if size > limit {
				http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
				return
			}
			capped.ServeHTTP(w, r)
		})
	}
}

// contentLength берёт размер из заголовка; сервер net/http уже проверил его
// формат, но httptest и прокси иногда оставляют только r.ContentLength.
func contentLength(r *http.Request) (int64, error) {
	if v := r.Header.Get("Content-Length"); v != "" {
		return parseContentLength(v)
	}
	if r.ContentLength > 0 {
		return r.ContentLength, nil
	}
	return 0, models.ErrContentLength
}

func parseContentLength(value string) (int64, error) {
	if value == "" {
		return 0, models.ErrContentLength
	}

	sz, err := strconv.ParseInt(value, 10, 64)
	if err != nil || sz < 0 {
		return 0, models.ErrBadContentLength
	}

	return sz, nil
}
