package integration

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sir_venger/chunkd/internal/app/uploadhttp"
	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/logging"
	"github.com/sir_venger/chunkd/internal/metrics"
	"github.com/sir_venger/chunkd/internal/mirror"
	"github.com/sir_venger/chunkd/internal/repo/meta"
	"github.com/sir_venger/chunkd/internal/usecase/uploadsvc"
	"github.com/sir_venger/chunkd/pkg/uploadclient"
)

const (
	token         = "integration-token"
	publicBaseURL = "https://uploads.example.test"
)

// stack — сервер со всеми зависимостями на временных каталогах.
type stack struct {
	srv       *httptest.Server
	chunks    *chunkstore.Store
	artifacts *chunkstore.ArtifactDir
	mirrorDir string
}

func newStack(t *testing.T) *stack {
	t.Helper()
	root := t.TempDir()

	chunks, err := chunkstore.New(filepath.Join(root, "chunks"))
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := chunkstore.NewArtifactDir(filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatal(err)
	}

	mirrorDir := t.TempDir()
	mir, err := mirror.Open(context.Background(), "file://"+filepath.ToSlash(mirrorDir))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = mir.Close() })

	st := &stack{chunks: chunks, artifacts: artifacts, mirrorDir: mirrorDir}
	m := metrics.New()
	log := logging.Discard()

	svc := uploadsvc.New(uploadsvc.Deps{
		Chunks:        chunks,
		Artifacts:     artifacts,
		Registry:      meta.NewMemoryStore(),
		Mirror:        mir,
		Metrics:       m,
		Logger:        log,
		PublicBaseURL: publicBaseURL,
		MaxChunkBytes: 1 << 20,
		MaxChunks:     10_000,
	})
	st.srv = httptest.NewServer(uploadhttp.New(uploadhttp.Options{
		Uploads:      svc,
		Chunks:       chunks,
		Artifacts:    artifacts,
		Metrics:      m,
		Logger:       log,
		Token:        token,
		MaxBodyBytes: 1 << 20,
		Heartbeat:    50 * time.Millisecond,
		ServeFiles:   true,
		GCTTL:        time.Hour,
	}))
	t.Cleanup(st.srv.Close)

	return st
}

func (s *stack) client(chunkSize int64) *uploadclient.Client {
	return uploadclient.New(uploadclient.Options{
		BaseURL:    s.srv.URL,
		Token:      token,
		ChunkSize:  chunkSize,
		Parallel:   8,
		HTTPClient: s.srv.Client(),
	})
}
