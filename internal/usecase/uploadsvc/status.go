package uploadsvc

import (
	"context"
	"errors"
	"sort"

	"github.com/sir_venger/chunkd/internal/chunkstore"
	"github.com/sir_venger/chunkd/internal/models"
)

// Status — снимок загрузки для клиента, который хочет понять, какие части дослать.
type Status struct {
	UploadID  string             `json:"upload_id"`
	State     models.UploadState `json:"state"`
	Chunks    int                `json:"chunks"`
	Total     int                `json:"total,omitempty"`
	Bytes     int64              `json:"bytes"`
	Sequences []uint32           `json:"sequences"`
	Corrupt   []string           `json:"corrupt,omitempty"`
}

// Status выводит состояние загрузки из содержимого каталогов. Ничего не меняет.
// name и total необязательны: без них нельзя отличить ready и merged.
func (s *Uploads) Status(_ context.Context, uploadID, name string, total int) (Status, error) {
	if !chunkstore.ValidID(uploadID) {
		return Status{}, models.ErrInvalidID
	}
	if name != "" && !chunkstore.ValidName(name) {
		return Status{}, models.ErrInvalidName
	}

	refs, err := s.Chunks.Locate(uploadID)
	if err != nil {
		return Status{}, err
	}

	exists := false
	if name != "" {
		if exists, err = s.Artifacts.Exists(name); err != nil {
			return Status{}, err
		}
	}

	st := Status{
		UploadID:  uploadID,
		State:     models.DeriveState(models.Snapshot{Chunks: len(refs), Total: total, ArtifactExists: exists}),
		Chunks:    len(refs),
		Total:     total,
		Sequences: make([]uint32, 0, len(refs)),
	}

	for _, ref := range refs {
		st.Bytes += ref.Size
		seq, err := chunkstore.ParseSeq(uploadID, ref.Name)
		if errors.Is(err, models.ErrCorruptChunkName) {
			st.Corrupt = append(st.Corrupt, ref.Name)
			continue
		}
		st.Sequences = append(st.Sequences, seq)
	}
	sort.Slice(st.Sequences, func(i, j int) bool { return st.Sequences[i] < st.Sequences[j] })

	return st, nil
}
