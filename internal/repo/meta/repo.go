// Package meta хранит журнал опубликованных артефактов: в памяти или в Postgres.
// Журнал справочный — решения о склейке принимаются только по содержимому диска.
package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sir_venger/chunkd/internal/models"
)

// Registry — журнал артефактов.
type Registry interface {
	Record(ctx context.Context, a models.Artifact) error
	Get(ctx context.Context, name string) (models.Artifact, error)
	Close()
}

// PGStore сохраняет записи об артефактах в Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

const artifactsTable = "artifacts"

// NewPGStore создаёт пул подключений к Postgres.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &PGStore{
		pool: pool,
	}, nil
}

// Open выбирает реализацию по DSN: пустой или memory:// — память, иначе Postgres.
func Open(ctx context.Context, dsn string) (Registry, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" || strings.HasPrefix(dsn, "memory://") {
		return NewMemoryStore(), nil
	}

	return NewPGStore(ctx, dsn)
}

// Close освобождает подключения пула.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
