package upload

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// Usage содержит агрегированную статистику по корню хранилища.
type Usage struct {
	TotalBytes int64
	Staging    int
	Merged     int
}

// Usage обходит корень и суммирует размеры файлов.
func (s *Uploads) Usage(ctx context.Context) (Usage, error) {
	var u Usage
	root := s.layout.Root

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}

		top := filepath.Dir(path) == root
		if d.IsDir() {
			if top && !strings.HasPrefix(d.Name(), ".") {
				u.Staging++
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		u.TotalBytes += info.Size()
		if top {
			u.Merged++
		}

		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Usage{}, storageFault("walk root", err)
	}

	return u, nil
}
