package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveState(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want UploadState
	}{
		{"nothing on disk", Snapshot{}, StateEmpty},
		{"some chunks", Snapshot{Chunks: 2, Total: 3}, StateCollecting},
		{"total unknown", Snapshot{Chunks: 2}, StateCollecting},
		{"too many chunks", Snapshot{Chunks: 4, Total: 3}, StateCollecting},
		{"all chunks", Snapshot{Chunks: 3, Total: 3}, StateReady},
		{"artifact and leftovers", Snapshot{Chunks: 3, Total: 3, ArtifactExists: true}, StateMerged},
		{"artifact only", Snapshot{ArtifactExists: true}, StateMerged},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveState(tc.snap))
		})
	}
}

func TestEventKindTerminal(t *testing.T) {
	assert.False(t, EventProgress.Terminal())
	for _, k := range []EventKind{EventServerError, EventIDNotFound, EventMissingChunks, EventCorruptChunkName, EventDuplicate, EventDone} {
		assert.True(t, k.Terminal(), k)
	}
}
