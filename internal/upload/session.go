package upload

import (
	"context"
	"errors"

	"github.com/sir_venger/chunkmerge/internal/models"
)

// touchSession обновляет отметку активности загрузки в журнале.
func (s *Uploads) touchSession(ctx context.Context, fileID string) {
	if s.Journal == nil {
		return
	}

	now := s.now().UTC()
	sess, err := s.Journal.Get(ctx, fileID)
	if errors.Is(err, models.ErrNotFound) {
		sess = models.Session{FileID: fileID, StartedAt: now}
	} else if err != nil {
		s.Log.Warnw("journal", "event", "get failed", "file", fileID, "error", err)
		return
	}
	sess.UpdatedAt = now

	if err = s.Journal.Save(ctx, sess); err != nil {
		s.Log.Warnw("journal", "event", "save failed", "file", fileID, "error", err)
	}
}

// markMerged отмечает сессию как собранную.
func (s *Uploads) markMerged(ctx context.Context, req models.MergeRequest, chunks int, size int64) {
	if s.Journal == nil {
		return
	}

	now := s.now().UTC()
	sess, err := s.Journal.Get(ctx, req.FileID)
	if errors.Is(err, models.ErrNotFound) {
		sess = models.Session{FileID: req.FileID, StartedAt: now}
	} else if err != nil {
		s.Log.Warnw("journal", "event", "get failed", "file", req.FileID, "error", err)
		return
	}
	sess.FileName = req.FileName
	sess.Chunks = chunks
	sess.Size = size
	sess.UpdatedAt = now
	sess.MergedAt = &now

	if err = s.Journal.Save(ctx, sess); err != nil {
		s.Log.Warnw("journal", "event", "save failed", "file", req.FileID, "error", err)
	}
}

func (s *Uploads) forgetSession(ctx context.Context, fileID string) {
	if s.Journal == nil {
		return
	}
	if err := s.Journal.Delete(ctx, fileID); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.Log.Warnw("journal", "event", "delete failed", "file", fileID, "error", err)
	}
}
