package integration

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/sir_venger/chunkmerge/pkg/uploadclient"
	"github.com/sir_venger/chunkmerge/pkg/uploadproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePayload(t *testing.T, name string, size int) (string, []byte) {
	t.Helper()
	payload := make([]byte, size)
	rand.New(rand.NewSource(7)).Read(payload)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, payload, 0o644))
	return path, payload
}

func TestUploadFile_RoundTrip(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	cli := uploadclient.New(env.URL, nil)

	path, payload := writePayload(t, "video.mp4", 300*1024+17)

	res, err := uploadclient.UploadFile(ctx, cli, path, uploadclient.UploadOptions{ChunkSize: 32 * 1024, Concurrency: 6})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Chunks)
	assert.Zero(t, res.Skipped)
	assert.False(t, res.AlreadyMerged)

	got, err := os.ReadFile(filepath.Join(env.Root, res.FileHash+".mp4"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got), "merged file differs")

	_, err = os.Stat(filepath.Join(env.Root, res.FileHash))
	assert.True(t, os.IsNotExist(err), "staging must be gone")

	// повторная загрузка того же файла ничего не отправляет
	again, err := uploadclient.UploadFile(ctx, cli, path, uploadclient.UploadOptions{ChunkSize: 32 * 1024})
	require.NoError(t, err)
	assert.True(t, again.AlreadyMerged)
	assert.Equal(t, again.Chunks, again.Skipped)

	sess, err := env.Journal.Get(ctx, res.FileHash)
	require.NoError(t, err)
	assert.NotNil(t, sess.MergedAt)
	assert.EqualValues(t, len(payload), sess.Size)
}

func TestUploadFile_ResumesPartialUpload(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	cli := uploadclient.New(env.URL, nil)

	const chunkSize = 1000
	path, payload := writePayload(t, "doc.pdf", 4500)

	fileHash, err := uploadclient.HashFile(path)
	require.NoError(t, err)

	// Имитируем оборванную загрузку: на сервер успели уйти чанки 1 и 3.
	for _, idx := range []int{3, 1} {
		start := idx * chunkSize
		err := cli.UploadChunk(ctx, fileHash, uploadclient.ChunkHash(fileHash, idx), bytes.NewReader(payload[start:start+chunkSize]))
		require.NoError(t, err)
	}

	st, err := cli.Verify(ctx, fileHash, "doc.pdf")
	require.NoError(t, err)
	assert.True(t, st.ShouldUpload)
	assert.Equal(t, []string{fileHash + "-1", fileHash + "-3"}, st.ExistChunks)

	res, err := uploadclient.UploadFile(ctx, cli, path, uploadclient.UploadOptions{ChunkSize: chunkSize})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Chunks)
	assert.Equal(t, 2, res.Skipped)

	got, err := os.ReadFile(filepath.Join(env.Root, fileHash+".pdf"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUploadFile_EmptyFile(t *testing.T) {
	env := newEnv(t)
	cli := uploadclient.New(env.URL, nil)

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	res, err := uploadclient.UploadFile(context.Background(), cli, path, uploadclient.UploadOptions{ChunkSize: 1024})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(env.Root, res.FileHash+".txt"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestClient_MergeWithoutChunks(t *testing.T) {
	env := newEnv(t)
	cli := uploadclient.New(env.URL, nil)

	err := cli.Merge(context.Background(), "unknown", "a.bin", 1024)
	require.Error(t, err)
	assert.True(t, uploadclient.IsCode(err, uploadproto.CodeNoStagedChunks), err.Error())
}
