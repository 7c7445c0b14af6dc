package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sir_venger/chunkmerge/internal/models"
)

// AcceptChunk сохраняет один чанк в staging-каталоге файла. Данные сначала
// целиком пишутся во временный файл и только потом переносятся rename'ом,
// поэтому частично записанный чанк никогда не виден под своим именем.
// Повторная загрузка того же чанка перезаписывает предыдущую.
// Чанк, пришедший после сборки, снова создаёт staging-каталог; его уберёт GC.
func (s *Uploads) AcceptChunk(ctx context.Context, fileID string, chunk models.ChunkID, src io.Reader) error {
	if err := models.ValidateFileID(fileID); err != nil {
		return err
	}
	if err := models.ValidateName(chunk.Hash); err != nil {
		return err
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative chunk index", models.ErrInvalidIdentifier)
	}
	if src == nil {
		return fmt.Errorf("%w: empty chunk body", models.ErrMalformedUpload)
	}

	tmp, err := s.layout.createTemp(partSuffix)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := s.spool(tmp, src)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = storageFault("close temp chunk", closeErr)
	}
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("%w: transfer aborted: %w", models.ErrMalformedUpload, err)
	}

	unlock := s.locks.RLock(fileID)
	defer unlock()

	stagingDir := s.layout.StagingDir(fileID)
	if err = os.Mkdir(stagingDir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return storageFault("create staging dir", err)
	}
	// Место staging-каталога занято итоговым файлом, собранным без расширения.
	occupied, err := isFile(stagingDir)
	if err != nil {
		return err
	}
	if occupied {
		return fmt.Errorf("%w: %s", models.ErrIdentifierTaken, fileID)
	}
	if err = os.Rename(tmpPath, s.layout.ChunkPath(fileID, chunk)); err != nil {
		return storageFault("commit chunk", err)
	}
	committed = true

	s.Metrics.ChunkReceived(n)
	s.Log.Debugw("chunk", "event", "accepted", "file", fileID, "chunk", chunk.String(), "bytes", n)
	s.touchSession(ctx, fileID)

	return nil
}

// spool копирует тело чанка во временный файл. Ошибки чтения источника
// классифицируются как ErrMalformedUpload, ошибки записи: как ErrStorageFault.
func (s *Uploads) spool(dst *os.File, src io.Reader) (int64, error) {
	sr := &sourceReader{r: src}
	var r io.Reader = sr
	if s.MaxChunkBytes > 0 {
		r = io.LimitReader(sr, s.MaxChunkBytes+1)
	}

	n, err := io.Copy(dst, r)
	if err != nil {
		if sr.err != nil {
			return n, fmt.Errorf("%w: read chunk body: %w", models.ErrMalformedUpload, sr.err)
		}
		return n, storageFault("write chunk", err)
	}
	if s.MaxChunkBytes > 0 && n > s.MaxChunkBytes {
		return n, fmt.Errorf("%w: chunk exceeds %d bytes", models.ErrMalformedUpload, s.MaxChunkBytes)
	}
	if err = dst.Sync(); err != nil {
		return n, storageFault("sync chunk", err)
	}

	return n, nil
}

// sourceReader запоминает ошибку, пришедшую от источника, чтобы отличить её от ошибки записи.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}
