package chunkstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/chunkd/internal/models"
)

func TestValidID(t *testing.T) {
	for _, id := range []string{"abc", "3f1c-aa_01", "A"} {
		assert.True(t, ValidID(id), id)
	}
	for _, id := range []string{"", "a.b", "a/b", "..", "(abc)-", "abc ", string(make([]byte, 129))} {
		assert.False(t, ValidID(id), id)
	}
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"out.bin", "archive.tar.gz", ".hidden"} {
		assert.True(t, ValidName(name), name)
	}
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "a\x00b"} {
		assert.False(t, ValidName(name), name)
	}
}

func TestPartNameRoundTrip(t *testing.T) {
	for _, seq := range []uint32{0, 1, 42, 1<<32 - 1} {
		name := PartName("abc", seq)
		got, err := ParseSeq("abc", name)
		require.NoError(t, err)
		assert.Equal(t, seq, got)
	}
}

func TestParseSeqCorrupt(t *testing.T) {
	for _, name := range []string{"abc..part", "abc.x.part", "abc.1.2.part", "abc.-1.part", "abc.99999999999.part", "abc.002.part", "abc.+1.part", "abc.00.part"} {
		_, err := ParseSeq("abc", name)
		assert.ErrorIs(t, err, models.ErrCorruptChunkName, name)
	}
}

func TestBelongsTo(t *testing.T) {
	assert.True(t, belongsTo("abc", "abc.1.part"))
	assert.False(t, belongsTo("abc", "abcd.1.part"))
	assert.False(t, belongsTo("abc", "xabc.1.part"))
	assert.False(t, belongsTo("abc", "abc.part"))
	assert.False(t, belongsTo("abc", "abc.1.tmp"))
	assert.False(t, belongsTo("abc", tempPrefix+"abc.1.part"))
}
