package upload

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// StartGC стартует периодическую очистку брошенных загрузок и возвращает функцию остановки.
func (s *Uploads) StartGC(ttl, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := s.SweepOnce(context.Background(), ttl)
				if err != nil {
					s.Log.Warnw("gc", "event", "sweep failed", "error", err)
					continue
				}
				if n > 0 {
					s.Log.Infow("gc", "event", "swept", "removed", n)
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// SweepOnce удаляет staging-каталоги, в которых ничего не менялось дольше ttl,
// и забытые временные файлы. Каталоги, занятые сборкой, пропускаются.
// Возвращает число удалённых staging-каталогов.
func (s *Uploads) SweepOnce(ctx context.Context, ttl time.Duration) (int, error) {
	now := s.now()
	entries, err := os.ReadDir(s.layout.Root)
	if err != nil {
		return 0, storageFault("read root", err)
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		fileID := e.Name()
		unlock, ok := s.locks.TryLock(fileID)
		if !ok {
			continue
		}

		dir := s.layout.StagingDir(fileID)
		latest, err := latestModTime(dir)
		if err != nil || now.Sub(latest) < ttl {
			unlock()
			continue
		}

		err = os.RemoveAll(dir)
		unlock()
		if err != nil {
			s.Log.Warnw("gc", "event", "remove failed", "file", fileID, "error", err)
			continue
		}
		s.forgetSession(ctx, fileID)
		removed++
	}

	s.sweepIncoming(now, ttl)
	if removed > 0 {
		s.Metrics.StagingRemoved(removed)
	}

	return removed, nil
}

// sweepIncoming удаляет временные файлы, оставшиеся после аварийных завершений.
func (s *Uploads) sweepIncoming(now time.Time, ttl time.Duration) {
	entries, err := os.ReadDir(s.layout.IncomingDir())
	if err != nil {
		return
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < ttl {
			continue
		}
		_ = os.Remove(filepath.Join(s.layout.IncomingDir(), e.Name()))
	}
}

// latestModTime возвращает самое позднее время изменения каталога и его записей.
func latestModTime(dir string) (time.Time, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return time.Time{}, err
	}
	latest := info.ModTime()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, err
	}
	for _, e := range entries {
		fi, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return time.Time{}, err
		}
		if fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
	}

	return latest, nil
}
