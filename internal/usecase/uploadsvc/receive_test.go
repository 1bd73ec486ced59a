package uploadsvc

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/OneOfOne/xxhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/chunkd/internal/models"
)

func TestReceiveDuplicatePart(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")

	_, err := f.svc.Receive(context.Background(), ChunkUpload{UploadID: "abc", Seq: 1, Body: strings.NewReader("ZZZZ"), Size: 4})
	assert.ErrorIs(t, err, models.ErrDuplicatePart)
}

func TestReceiveHashMismatchKeepsChunk(t *testing.T) {
	f := newFixture(t)
	wrong := xxhash.Checksum32([]byte("something else"))

	part, err := f.svc.Receive(context.Background(), ChunkUpload{UploadID: "abc", Seq: 1, Body: strings.NewReader("AAAA"), Size: 4, Hash: &wrong})

	var mismatch *models.HashMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.ErrorIs(t, err, models.ErrHashMismatch)
	assert.Equal(t, wrong, mismatch.Expected)
	assert.Equal(t, xxhash.Checksum32([]byte("AAAA")), mismatch.Actual)

	_, err = os.Stat(part.Path)
	require.NoError(t, err, "chunk must be retained")

	require.NoError(t, f.svc.Discard(part))
	_, err = os.Stat(part.Path)
	assert.True(t, os.IsNotExist(err))

	// после удаления клиент может дослать ту же часть
	f.upload(t, "abc", 1, "AAAA")
}

func TestReceiveWithoutHash(t *testing.T) {
	f := newFixture(t)

	part, err := f.svc.Receive(context.Background(), ChunkUpload{UploadID: "abc", Seq: 9, Body: strings.NewReader("data"), Size: -1})
	require.NoError(t, err)
	assert.Equal(t, uint32(9), part.Seq)
	assert.Equal(t, int64(4), part.Size)
}

func TestReceiveInvalidID(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"", "a.b", "(abc)-", "../x"} {
		_, err := f.svc.Receive(context.Background(), ChunkUpload{UploadID: id, Seq: 1, Body: strings.NewReader("x"), Size: 1})
		assert.ErrorIs(t, err, models.ErrInvalidID, id)
	}
}

func TestReceiveTooLarge(t *testing.T) {
	f := newFixture(t)
	f.svc.MaxChunkBytes = 8

	_, err := f.svc.Receive(context.Background(), ChunkUpload{UploadID: "abc", Seq: 1, Body: strings.NewReader("0123456789"), Size: 10})
	assert.ErrorIs(t, err, models.ErrTooLarge)

	// размер не заявлен, но поток длиннее лимита
	_, err = f.svc.Receive(context.Background(), ChunkUpload{UploadID: "abc", Seq: 1, Body: bytes.NewReader(make([]byte, 9)), Size: -1})
	assert.ErrorIs(t, err, models.ErrTooLarge)

	refs, err := f.chunks.Locate("abc")
	require.NoError(t, err)
	assert.Empty(t, refs)

	_, err = f.svc.Receive(context.Background(), ChunkUpload{UploadID: "abc", Seq: 1, Body: bytes.NewReader(make([]byte, 8)), Size: -1})
	assert.NoError(t, err)
}

func TestReceiveSizeMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Receive(context.Background(), ChunkUpload{UploadID: "abc", Seq: 1, Body: strings.NewReader("abc"), Size: 5})
	assert.ErrorIs(t, err, models.ErrSizeMismatch)
}
