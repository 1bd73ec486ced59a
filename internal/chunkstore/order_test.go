package chunkstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/chunkd/internal/models"
)

func refs(id string, names ...string) []ChunkRef {
	out := make([]ChunkRef, 0, len(names))
	for _, n := range names {
		out = append(out, ChunkRef{UploadID: id, Name: n, Path: "/chunks/" + n})
	}
	return out
}

func TestOrderAscending(t *testing.T) {
	parts, err := Order(refs("abc", "abc.3.part", "abc.10.part", "abc.1.part", "abc.2.part"), 4)
	require.NoError(t, err)

	var seqs []uint32
	for _, p := range parts {
		seqs = append(seqs, p.Seq)
		assert.Equal(t, "abc", p.UploadID)
	}
	assert.Equal(t, []uint32{1, 2, 3, 10}, seqs)
}

func TestOrderMissingChunks(t *testing.T) {
	_, err := Order(refs("abc", "abc.1.part", "abc.2.part", "abc.3.part"), 2)

	var missing *models.MissingChunksError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 3, missing.Found)
	assert.Equal(t, 2, missing.Total)
	assert.ErrorIs(t, err, models.ErrMissingChunks)
}

func TestOrderCorruptNameWinsOverCount(t *testing.T) {
	_, err := Order(refs("abc", "abc.1.part", "abc.x.part"), 5)
	assert.ErrorIs(t, err, models.ErrCorruptChunkName)
}

func TestOrderNonCanonicalName(t *testing.T) {
	_, err := Order(refs("abc", "abc.1.part", "abc.002.part"), 2)
	assert.ErrorIs(t, err, models.ErrCorruptChunkName)

	var dup *models.DuplicateSequenceError
	assert.False(t, errors.As(err, &dup))
}

func TestOrderDuplicateSequence(t *testing.T) {
	_, err := Order(refs("abc", "abc.1.part", "abc.1.part"), 2)

	var dup *models.DuplicateSequenceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, uint32(1), dup.Seq)
	assert.ErrorIs(t, err, models.ErrCorruptChunkName)
}
