package uploadsvc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/chunkd/internal/models"
)

func TestMergeScenario(t *testing.T) {
	f := newFixture(t)

	// порядок прихода 2, 1, 3
	f.upload(t, "abc", 2, "BBBB")
	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 3, "CC")

	events := f.merge(t, "abc", "out.bin", 3)
	assert.Equal(t, []models.Event{
		models.Progress(1),
		models.Progress(2),
		models.Progress(3),
		models.Done("https://uploads.example.test/out.bin"),
	}, events)

	b, err := os.ReadFile(f.artifacts.Path("out.bin"))
	require.NoError(t, err)
	assert.Equal(t, "AAAABBBBCC", string(b))

	refs, err := f.chunks.Locate("abc")
	require.NoError(t, err)
	assert.Empty(t, refs)

	rec, err := f.svc.Artifact(context.Background(), "out.bin")
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.UploadID)
	assert.Equal(t, int64(10), rec.Size)
	assert.Equal(t, 3, rec.Chunks)
	assert.Equal(t, "AAAABBBBCC", string(f.mirror.get("out.bin")))
}

func TestMergeIdempotent(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 2, "BBBB")

	first := f.merge(t, "abc", "out.bin", 2)
	require.Equal(t, models.EventDone, first[len(first)-1].Kind)

	second := f.merge(t, "abc", "out.bin", 2)
	require.Len(t, second, 1)
	assert.Equal(t, models.EventDuplicate, second[0].Kind)

	b, err := os.ReadFile(f.artifacts.Path("out.bin"))
	require.NoError(t, err)
	assert.Equal(t, "AAAABBBB", string(b))
}

func TestMergeMissingChunksTooFewDeclared(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 2, "BBBB")
	f.upload(t, "abc", 3, "CC")

	events := f.merge(t, "abc", "out.bin", 2)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventMissingChunks, events[0].Kind)
	assert.Contains(t, events[0].Data, "3 chunks were received, but 2")

	ok, err := f.artifacts.Exists("out.bin")
	require.NoError(t, err)
	assert.False(t, ok)

	refs, err := f.chunks.Locate("abc")
	require.NoError(t, err)
	assert.Len(t, refs, 3)
}

func TestMergeCompletenessGate(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 3, "CC")

	for total := 3; total < 6; total++ {
		events := f.merge(t, "abc", "out.bin", total)
		require.Len(t, events, 1)
		assert.Equal(t, models.EventMissingChunks, events[0].Kind)
	}

	ok, err := f.artifacts.Exists("out.bin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergeCorruptChunkName(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 2, "BBBB")
	require.NoError(t, os.WriteFile(filepath.Join(f.chunks.Dir(), "abc.two.part"), []byte("XX"), 0o644))

	events := f.merge(t, "abc", "out.bin", 3)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventCorruptChunkName, events[0].Kind)

	ok, err := f.artifacts.Exists("out.bin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergeDuplicateSequenceIsCorrupt(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	require.NoError(t, os.WriteFile(filepath.Join(f.chunks.Dir(), "abc.01.part"), []byte("XX"), 0o644))

	events := f.merge(t, "abc", "out.bin", 2)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventCorruptChunkName, events[0].Kind)
}

func TestMergeNonCanonicalName(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	require.NoError(t, os.WriteFile(filepath.Join(f.chunks.Dir(), "abc.002.part"), []byte("XX"), 0o644))

	events := f.merge(t, "abc", "out.bin", 2)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventCorruptChunkName, events[0].Kind)

	ok, err := f.artifacts.Exists("out.bin")
	require.NoError(t, err)
	assert.False(t, ok)

	refs, err := f.chunks.Locate("abc")
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestMergeDuplicateCleansChunks(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.artifacts.Path("out.bin"), []byte("original"), 0o644))

	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 2, "BBBB")

	events := f.merge(t, "abc", "out.bin", 2)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventDuplicate, events[0].Kind)

	refs, err := f.chunks.Locate("abc")
	require.NoError(t, err)
	assert.Empty(t, refs)

	b, err := os.ReadFile(f.artifacts.Path("out.bin"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(b))
}

func TestMergeConcurrentSameID(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 2, "BBBB")
	f.upload(t, "abc", 3, "CC")
	// медленное чтение, чтобы склейки точно пересеклись по времени
	f.svc.Chunks = &failingChunks{Store: f.chunks, delay: 20 * time.Millisecond}

	req := MergeRequest{UploadID: "abc", FinalName: "out.bin", Total: 3}
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		kinds []models.EventKind
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, err := f.svc.Merge(context.Background(), req)
			if err != nil {
				t.Error(err)
				return
			}
			got := collect(events)
			mu.Lock()
			kinds = append(kinds, got[len(got)-1].Kind)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []models.EventKind{models.EventDone, models.EventDuplicate}, kinds)

	b, err := os.ReadFile(f.artifacts.Path("out.bin"))
	require.NoError(t, err)
	assert.Equal(t, "AAAABBBBCC", string(b))

	refs, err := f.chunks.Locate("abc")
	require.NoError(t, err)
	assert.Empty(t, refs)

	f.svc.locks.mu.Lock()
	assert.Empty(t, f.svc.locks.locks)
	f.svc.locks.mu.Unlock()
}

func TestMergeIDNotFound(t *testing.T) {
	f := newFixture(t)

	events := f.merge(t, "nope", "out.bin", 1)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventIDNotFound, events[0].Kind)
}

func TestMergeOrderIndependence(t *testing.T) {
	payloads := []string{"one-", "two-", "three-", "four"}
	perms := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}

	for i, perm := range perms {
		t.Run(fmt.Sprint(perm), func(t *testing.T) {
			f := newFixture(t)
			id := fmt.Sprintf("perm%d", i)
			for _, idx := range perm {
				f.upload(t, id, uint32(idx+1), payloads[idx])
			}

			events := f.merge(t, id, "merged.txt", len(payloads))
			require.Equal(t, models.EventDone, events[len(events)-1].Kind)

			b, err := os.ReadFile(f.artifacts.Path("merged.txt"))
			require.NoError(t, err)
			assert.Equal(t, strings.Join(payloads, ""), string(b))
		})
	}
}

func TestMergeCopyFailureIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 2, "BBBB")
	f.upload(t, "abc", 3, "CC")
	f.svc.Chunks = &failingChunks{Store: f.chunks, failSeq: 2}

	events := f.merge(t, "abc", "out.bin", 3)
	require.Len(t, events, 2)
	assert.Equal(t, models.Progress(1), events[0])
	assert.Equal(t, models.EventServerError, events[1].Kind)

	// частичный файл остаётся на диске и не выдаётся за успех
	b, err := os.ReadFile(f.artifacts.Path("out.bin"))
	require.NoError(t, err)
	assert.Equal(t, "AAAA", string(b))

	_, err = f.svc.Artifact(context.Background(), "out.bin")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMergeSurvivesCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "abc", 1, "AAAA")
	f.upload(t, "abc", 2, "BBBB")

	ctx, cancel := context.WithCancel(context.Background())
	events, err := f.svc.Merge(ctx, MergeRequest{UploadID: "abc", FinalName: "out.bin", Total: 2})
	require.NoError(t, err)
	cancel()

	got := collect(events)
	assert.Equal(t, models.EventDone, got[len(got)-1].Kind)

	b, err := os.ReadFile(f.artifacts.Path("out.bin"))
	require.NoError(t, err)
	assert.Equal(t, "AAAABBBB", string(b))
}

func TestMergeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Merge(ctx, MergeRequest{UploadID: "a.b", FinalName: "x", Total: 1})
	assert.ErrorIs(t, err, models.ErrInvalidID)

	_, err = f.svc.Merge(ctx, MergeRequest{UploadID: "abc", FinalName: "../x", Total: 1})
	assert.ErrorIs(t, err, models.ErrInvalidName)

	_, err = f.svc.Merge(ctx, MergeRequest{UploadID: "abc", FinalName: "x", Total: 0})
	assert.ErrorIs(t, err, models.ErrInvalidTotal)

	_, err = f.svc.Merge(ctx, MergeRequest{UploadID: "abc", FinalName: "x", Total: 1001})
	assert.ErrorIs(t, err, models.ErrInvalidTotal)
}
