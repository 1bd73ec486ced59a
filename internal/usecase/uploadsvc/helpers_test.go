package uploadsvc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/logging"
	"github.com/sir_venger/chunkd/internal/metrics"
	"github.com/sir_venger/chunkd/internal/models"
	"github.com/sir_venger/chunkd/internal/repo/meta"
)

const testBaseURL = "https://uploads.example.test/"

type fixture struct {
	svc       *Uploads
	chunks    *chunkstore.Store
	artifacts *chunkstore.ArtifactDir
	registry  *meta.MemoryStore
	mirror    *memMirror
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()

	chunks, err := chunkstore.New(filepath.Join(root, "chunks"))
	require.NoError(t, err)
	artifacts, err := chunkstore.NewArtifactDir(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	f := &fixture{
		chunks:    chunks,
		artifacts: artifacts,
		registry:  meta.NewMemoryStore(),
		mirror:    &memMirror{objects: map[string][]byte{}},
	}
	f.svc = New(Deps{
		Chunks:        chunks,
		Artifacts:     artifacts,
		Registry:      f.registry,
		Mirror:        f.mirror,
		Metrics:       metrics.New(),
		Logger:        logging.Discard(),
		PublicBaseURL: testBaseURL,
		MaxChunkBytes: 1 << 20,
		MaxChunks:     1000,
	})
	return f
}

func (f *fixture) upload(t *testing.T, id string, seq uint32, payload string) {
	t.Helper()
	h := xxhash.Checksum32([]byte(payload))
	_, err := f.svc.Receive(context.Background(), ChunkUpload{
		UploadID: id,
		Seq:      seq,
		Body:     strings.NewReader(payload),
		Size:     int64(len(payload)),
		Hash:     &h,
	})
	require.NoError(t, err)
}

func (f *fixture) merge(t *testing.T, id, name string, total int) []models.Event {
	t.Helper()
	events, err := f.svc.Merge(context.Background(), MergeRequest{UploadID: id, FinalName: name, Total: total})
	require.NoError(t, err)
	return collect(events)
}

func collect(events <-chan models.Event) []models.Event {
	var out []models.Event
	for e := range events {
		out = append(out, e)
	}
	return out
}

type memMirror struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memMirror) Put(_ context.Context, key string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return n, err
	}
	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()
	return n, nil
}

func (m *memMirror) get(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key]
}

// failingChunks отдаёт ошибку при открытии части с номером failSeq
// (ноль — никогда) и перед каждым открытием ждёт delay.
type failingChunks struct {
	*chunkstore.Store
	failSeq uint32
	delay   time.Duration
}

func (c *failingChunks) Open(path string) (io.ReadCloser, error) {
	time.Sleep(c.delay)
	if c.failSeq == 0 {
		return c.Store.Open(path)
	}
	if strings.HasSuffix(filepath.Base(path), "."+strconv.FormatUint(uint64(c.failSeq), 10)+".part") {
		return nil, errors.New("disk on fire")
	}
	return c.Store.Open(path)
}
