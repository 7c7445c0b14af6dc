package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/sir_venger/chunkmerge/internal/models"
	"golang.org/x/sync/errgroup"
)

// Merge собирает итоговый файл из всех чанков staging-каталога.
//
// Если итоговый файл уже существует, вызов сразу успешен и staging не трогается.
// Чанки упорядочиваются по числовому индексу; чанк на позиции i пишется со
// смещения i*ChunkSize. Копирования идут параллельно, каждое через свой
// дескриптор, диапазоны не пересекаются. Файл собирается во временном файле
// и появляется под итоговым именем только целиком.
//
// ChunkSize должен совпадать с размером, которым резались все чанки, кроме
// последнего. Без StrictChunkSize это не проверяется.
//
// Одновременные вызовы для одного файла с одинаковым ChunkSize объединяются
// в один; вызовы с разным ChunkSize выполняются по очереди под блокировкой. Начатая сборка
// не прерывается отменой ctx.
func (s *Uploads) Merge(ctx context.Context, req models.MergeRequest) error {
	if err := models.ValidateFileID(req.FileID); err != nil {
		return err
	}
	if req.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be > 0", models.ErrMalformedUpload)
	}

	key := req.FileID + models.Ext(req.FileName) + "/" + strconv.FormatInt(req.ChunkSize, 10)
	_, err, shared := s.merges.Do(key, func() (any, error) {
		return nil, s.merge(context.WithoutCancel(ctx), req)
	})
	if shared {
		s.Log.Debugw("merge", "event", "coalesced", "file", req.FileID)
	}

	return err
}

func (s *Uploads) merge(ctx context.Context, req models.MergeRequest) (err error) {
	unlock := s.locks.Lock(req.FileID)
	defer unlock()

	start := s.now()
	result := MergeResultFailed
	defer func() {
		s.Metrics.MergeFinished(result, s.now().Sub(start))
	}()

	finalPath := s.layout.FinalPath(req.FileID, req.FileName)
	done, err := isFile(finalPath)
	if err != nil {
		return err
	}
	if done {
		result = MergeResultSkipped
		s.Log.Infow("merge", "event", "already merged", "file", req.FileID, "path", finalPath)
		return nil
	}

	chunks, err := s.stagedChunks(req.FileID)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(chunks) == 0) {
		return fmt.Errorf("%w: %s", models.ErrNoStagedChunks, req.FileID)
	}
	if err != nil {
		return err
	}

	if s.StrictChunkSize {
		if err = checkChunkSizes(chunks, req.ChunkSize); err != nil {
			return err
		}
	}

	scratch, err := s.layout.createTemp(mergeSuffix)
	if err != nil {
		return err
	}
	scratchPath := scratch.Name()
	if err = scratch.Close(); err != nil {
		_ = os.Remove(scratchPath)
		return storageFault("close scratch", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(scratchPath)
		}
	}()

	if err = s.assemble(ctx, scratchPath, chunks, req.ChunkSize); err != nil {
		return err
	}

	size, err := syncFile(scratchPath)
	if err != nil {
		return err
	}

	// Без расширения итоговый файл займёт место staging-каталога, поэтому каталог убираем до rename.
	collides := finalPath == s.layout.StagingDir(req.FileID)
	if collides {
		if err = s.removeStaging(ctx, req.FileID, chunks); err != nil {
			return err
		}
	}
	if err = os.Rename(scratchPath, finalPath); err != nil {
		return storageFault("commit final file", err)
	}
	committed = true
	result = MergeResultMerged

	s.Log.Infow("merge", "event", "merged", "file", req.FileID, "path", finalPath,
		"chunks", len(chunks), "bytes", size, "took", s.now().Sub(start))

	// Итоговый файл уже на месте; незавершённая очистка не делает сборку неуспешной.
	if !collides {
		if cleanupErr := s.removeStaging(ctx, req.FileID, chunks); cleanupErr != nil {
			s.Log.Warnw("merge", "event", "cleanup failed", "file", req.FileID, "error", cleanupErr)
		}
	}
	s.markMerged(ctx, req, len(chunks), size)

	return nil
}

// assemble параллельно копирует чанки в dst по вычисленным смещениям и ждёт все копирования.
func (s *Uploads) assemble(ctx context.Context, dst string, chunks []stagedChunk, chunkSize int64) error {
	eg, egCtx := errgroup.WithContext(ctx)
	if s.MergeWorkers > 0 {
		eg.SetLimit(s.MergeWorkers)
	}

	last := len(chunks) - 1
	for i, c := range chunks {
		offset := int64(i) * chunkSize
		// Все чанки, кроме последнего, ограничены chunkSize, чтобы диапазоны записи не пересекались.
		limit := chunkSize
		if i == last {
			limit = -1
		}

		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return copyAt(dst, c.path, offset, limit)
		})
	}

	return eg.Wait()
}

// copyAt пишет содержимое src в dst начиная со смещения offset через отдельный дескриптор.
// limit < 0 означает копирование до конца src.
func copyAt(dst, src string, offset, limit int64) error {
	in, err := os.Open(src)
	if err != nil {
		return storageFault("open chunk", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY, 0)
	if err != nil {
		return storageFault("open scratch", err)
	}

	var r io.Reader = in
	if limit >= 0 {
		r = io.LimitReader(in, limit)
	}

	if _, err = io.Copy(io.NewOffsetWriter(out, offset), r); err != nil {
		_ = out.Close()
		return storageFault("copy chunk", err)
	}
	if err = out.Close(); err != nil {
		return storageFault("close scratch", err)
	}

	return nil
}

// syncFile сбрасывает файл на диск и возвращает его размер.
func syncFile(path string) (int64, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, storageFault("open scratch", err)
	}
	defer f.Close()

	if err = f.Sync(); err != nil {
		return 0, storageFault("sync scratch", err)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, storageFault("stat scratch", err)
	}

	return info.Size(), nil
}

// removeStaging удаляет файлы чанков, а затем сам staging-каталог.
func (s *Uploads) removeStaging(ctx context.Context, fileID string, chunks []stagedChunk) error {
	eg, _ := errgroup.WithContext(ctx)
	if s.MergeWorkers > 0 {
		eg.SetLimit(s.MergeWorkers)
	}
	for _, c := range chunks {
		eg.Go(func() error {
			if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return storageFault("remove chunk", err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.layout.StagingDir(fileID)); err != nil {
		return storageFault("remove staging dir", err)
	}
	s.Metrics.StagingRemoved(1)

	return nil
}

// checkChunkSizes проверяет, что все чанки, кроме последнего, ровно chunkSize байт,
// а последний не больше chunkSize.
func checkChunkSizes(chunks []stagedChunk, chunkSize int64) error {
	last := len(chunks) - 1
	for i, c := range chunks {
		info, err := os.Stat(c.path)
		if err != nil {
			return storageFault("stat chunk", err)
		}
		size := info.Size()
		switch {
		case i < last && size != chunkSize:
			return fmt.Errorf("%w: %s has %d bytes, want %d", models.ErrChunkSizeMismatch, c.name, size, chunkSize)
		case i == last && size > chunkSize:
			return fmt.Errorf("%w: last chunk %s has %d bytes, max %d", models.ErrChunkSizeMismatch, c.name, size, chunkSize)
		}
	}
	return nil
}
