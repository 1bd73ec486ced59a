package meta

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sir_venger/chunkd/internal/models"
)

// Record записывает артефакт. Имя уникально, повторная запись игнорируется —
// так же, как повторная склейка в то же имя даёт duplicate.
func (s *PGStore) Record(ctx context.Context, a models.Artifact) error {
	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(artifactsTable).
		Columns("name", "upload_id", "size", "chunks", "url", "created_at").
		Values(a.Name, a.UploadID, a.Size, a.Chunks, a.URL, a.CreatedAt).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert sql: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec insert: %w", err)
	}

	return nil
}
