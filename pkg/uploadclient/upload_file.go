package uploadclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// UploadOptions задаёт параметры загрузки файла.
type UploadOptions struct {
	ChunkSize   int64
	Concurrency int
	// Progress получает индикатор загрузки, nil отключает вывод.
	Progress io.Writer
}

// UploadResult описывает итог загрузки.
type UploadResult struct {
	FileHash string
	Chunks   int
	Skipped  int
	// AlreadyMerged означает, что файл уже был на сервере, ничего не отправлялось.
	AlreadyMerged bool
}

// UploadFile выполняет докачку целиком: считает хеш, спрашивает сервер о
// состоянии, отправляет только недостающие чанки и просит собрать файл.
func UploadFile(ctx context.Context, c Client, path string, opts UploadOptions) (UploadResult, error) {
	if opts.ChunkSize <= 0 {
		return UploadResult{}, fmt.Errorf("chunk size must be > 0")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return UploadResult{}, err
	}
	size := info.Size()

	fileHash, err := hashFile(f)
	if err != nil {
		return UploadResult{}, err
	}
	name := filepath.Base(path)
	total := ChunkCount(size, opts.ChunkSize)
	res := UploadResult{FileHash: fileHash, Chunks: total}

	st, err := c.Verify(ctx, fileHash, name)
	if err != nil {
		return res, fmt.Errorf("verify: %w", err)
	}
	if !st.ShouldUpload {
		res.AlreadyMerged = true
		res.Skipped = total
		return res, nil
	}

	have := make(map[string]struct{}, len(st.ExistChunks))
	for _, id := range st.ExistChunks {
		have[id] = struct{}{}
	}

	bar := newProgressBar(opts.Progress, "Uploading "+name, size, total)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)
	for idx := 0; idx < total; idx++ {
		offset := int64(idx) * opts.ChunkSize
		length := min(opts.ChunkSize, size-offset)
		chunkHash := ChunkHash(fileHash, idx)

		if _, ok := have[chunkHash]; ok {
			res.Skipped++
			bar.Skip(1, length)
			continue
		}

		eg.Go(func() error {
			section := io.NewSectionReader(f, offset, length)
			body := io.TeeReader(section, progressWriter{bar: bar})
			if err := c.UploadChunk(egCtx, fileHash, chunkHash, body); err != nil {
				return fmt.Errorf("upload %s: %w", chunkHash, err)
			}
			bar.ChunkDone()
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		bar.Fail(err)
		return res, err
	}

	if err = c.Merge(ctx, fileHash, name, opts.ChunkSize); err != nil {
		bar.Fail(err)
		return res, fmt.Errorf("merge: %w", err)
	}
	bar.Finish()

	return res, nil
}

// ChunkCount возвращает число чанков для файла размера size; пустой файл: один пустой чанк.
func ChunkCount(size, chunkSize int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// ChunkHash строит идентификатор чанка <fileHash>-<index>.
func ChunkHash(fileHash string, idx int) string {
	return fmt.Sprintf("%s-%d", fileHash, idx)
}

// HashFile считает SHA-256 файла: идентификатор сессии загрузки.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return hashFile(f)
}

func hashFile(f *os.File) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(f, 0, 1<<62)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
