// Package uploadsvc реализует приём частей и их склейку в итоговый файл.
package uploadsvc

import (
	"context"
	"io"
	"log/slog"

	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/logging"
	"github.com/sir_venger/chunkd/internal/metrics"
	"github.com/sir_venger/chunkd/internal/models"
)

type (
	// ChunkStore — хранилище частей.
	ChunkStore interface {
		Put(uploadID string, seq uint32, r io.Reader, size int64) (models.ChunkPart, error)
		Locate(uploadID string) ([]chunkstore.ChunkRef, error)
		Open(path string) (io.ReadCloser, error)
		Remove(path string) error
	}

	// ArtifactStore — каталог итоговых файлов с эксклюзивным созданием.
	ArtifactStore interface {
		Exists(name string) (bool, error)
		Create(name string) (chunkstore.ArtifactFile, error)
		Open(name string) (io.ReadCloser, error)
	}

	// Registry — журнал опубликованных артефактов.
	Registry interface {
		Record(ctx context.Context, a models.Artifact) error
		Get(ctx context.Context, name string) (models.Artifact, error)
	}

	// Mirror — внешняя копия артефактов.
	Mirror interface {
		Put(ctx context.Context, key string, r io.Reader) (int64, error)
	}

	// Service объединяет операции приёма частей и склейки.
	Service interface {
		Receive(ctx context.Context, in ChunkUpload) (models.ChunkPart, error)
		Discard(part models.ChunkPart) error
		Merge(ctx context.Context, req MergeRequest) (<-chan models.Event, error)
		Status(ctx context.Context, uploadID, name string, total int) (Status, error)
		Artifact(ctx context.Context, name string) (models.Artifact, error)
	}
)

// Deps — зависимости сервиса. Registry, Mirror и Metrics необязательны.
type Deps struct {
	Chunks        ChunkStore
	Artifacts     ArtifactStore
	Registry      Registry
	Mirror        Mirror
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	PublicBaseURL string
	MaxChunkBytes int64
	MaxChunks     int
}

type Uploads struct {
	Deps
	log   *slog.Logger
	locks uploadLocks
}

// New конструирует сервис с заданными зависимостями.
func New(deps Deps) *Uploads {
	return &Uploads{Deps: deps, log: logging.Component(deps.Logger, "uploads")}
}

var _ Service = (*Uploads)(nil)

// Artifact возвращает запись журнала об опубликованном файле.
func (s *Uploads) Artifact(ctx context.Context, name string) (models.Artifact, error) {
	if !chunkstore.ValidName(name) {
		return models.Artifact{}, models.ErrInvalidName
	}
	if s.Registry == nil {
		return models.Artifact{}, models.ErrNotFound
	}
	return s.Registry.Get(ctx, name)
}
