package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sir_venger/chunkd/internal/models"
)

// Get возвращает запись об артефакте по его имени.
func (s *PGStore) Get(ctx context.Context, name string) (models.Artifact, error) {
	if strings.TrimSpace(name) == "" {
		return models.Artifact{}, fmt.Errorf("artifact name is empty")
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("upload_id", "size", "chunks", "url", "created_at").
		From(artifactsTable).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.Artifact{}, fmt.Errorf("build select: %w", err)
	}

	a := models.Artifact{Name: name}
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&a.UploadID, &a.Size, &a.Chunks, &a.URL, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Artifact{}, models.ErrNotFound
		}
		return models.Artifact{}, fmt.Errorf("scan artifact row: %w", err)
	}

	return a, nil
}
