package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sir_venger/chunkmerge/internal/models"
	meta "github.com/sir_venger/chunkmerge/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func age(t *testing.T, d time.Duration, paths ...string) {
	t.Helper()
	old := time.Now().Add(-d)
	for _, p := range paths {
		require.NoError(t, os.Chtimes(p, old, old))
	}
}

func TestSweepOnce_RemovesStaleStaging(t *testing.T) {
	journal := meta.NewMemoryStore()
	svc, root := newTestService(t, func(d *Deps) { d.Journal = journal })
	ctx := context.Background()

	upload(t, svc, "stale", 0, []byte("old"))
	upload(t, svc, "fresh", 0, []byte("new"))

	staleDir := filepath.Join(root, "stale")
	age(t, 48*time.Hour, filepath.Join(staleDir, "stale-0"), staleDir)

	scratch := filepath.Join(root, incomingDirName, "leftover.merge")
	require.NoError(t, os.WriteFile(scratch, []byte("x"), 0o644))
	age(t, 48*time.Hour, scratch)

	n, err := svc.SweepOnce(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(staleDir)
	assert.True(t, os.IsNotExist(err), "stale dir not removed")
	_, err = os.Stat(filepath.Join(root, "fresh", "fresh-0"))
	assert.NoError(t, err)
	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err), "stale scratch not removed")

	_, err = journal.Get(ctx, "stale")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = journal.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestSweepOnce_SkipsLockedStaging(t *testing.T) {
	svc, root := newTestService(t, nil)
	upload(t, svc, "busy", 0, []byte("x"))
	dir := filepath.Join(root, "busy")
	age(t, 48*time.Hour, filepath.Join(dir, "busy-0"), dir)

	unlock := svc.locks.Lock("busy")
	n, err := svc.SweepOnce(context.Background(), time.Hour)
	unlock()

	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestStartGC_Stop(t *testing.T) {
	svc, _ := newTestService(t, nil)
	stop := svc.StartGC(time.Hour, 10*time.Millisecond)
	stop()
	stop()

	noop := svc.StartGC(0, 0)
	noop()
}

func TestJournal_TracksSession(t *testing.T) {
	journal := meta.NewMemoryStore()
	svc, _ := newTestService(t, func(d *Deps) { d.Journal = journal })
	ctx := context.Background()

	upload(t, svc, "abc", 0, []byte("12345"))
	upload(t, svc, "abc", 1, []byte("67"))

	sess, err := journal.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, sess.MergedAt)
	assert.False(t, sess.StartedAt.IsZero())

	require.NoError(t, svc.Merge(ctx, models.MergeRequest{FileID: "abc", FileName: "a.bin", ChunkSize: 5}))

	sess, err = journal.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, sess.MergedAt)
	assert.Equal(t, "a.bin", sess.FileName)
	assert.Equal(t, 2, sess.Chunks)
	assert.EqualValues(t, 7, sess.Size)

	all, err := svc.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUsage(t *testing.T) {
	svc, root := newTestService(t, nil)
	ctx := context.Background()

	upload(t, svc, "a", 0, []byte("1234"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("123"), 0o644))

	u, err := svc.Usage(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 7, u.TotalBytes)
	assert.Equal(t, 1, u.Staging)
	assert.Equal(t, 1, u.Merged)
}
