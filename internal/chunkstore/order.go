package chunkstore

import (
	"sort"

	"github.com/sir_venger/chunkd/internal/models"
)

// Order разбирает номера частей и возвращает их по возрастанию.
//
// Порядок проверок: сначала имена (одно битое имя бракует весь набор), затем
// количество против заявленного total, затем повторы номеров.
func Order(refs []ChunkRef, total int) ([]models.ChunkPart, error) {
	parts := make([]models.ChunkPart, 0, len(refs))
	seen := make(map[uint32]string, len(refs))
	var dup *models.DuplicateSequenceError

	for _, ref := range refs {
		seq, err := ParseSeq(ref.UploadID, ref.Name)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[seq]; ok && dup == nil {
			dup = &models.DuplicateSequenceError{Seq: seq, Names: []string{prev, ref.Name}}
		}
		seen[seq] = ref.Name

		parts = append(parts, models.ChunkPart{
			UploadID: ref.UploadID,
			Seq:      seq,
			Size:     ref.Size,
			Path:     ref.Path,
		})
	}

	if len(parts) != total {
		return nil, &models.MissingChunksError{Found: len(parts), Total: total}
	}
	if dup != nil {
		return nil, dup
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].Seq < parts[j].Seq
	})

	return parts, nil
}
