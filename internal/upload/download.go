package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sir_venger/chunkmerge/internal/models"
)

// OpenFinal открывает собранный файл по имени <fileID><ext>.
// Незавершённая загрузка даёт models.ErrNotFound.
func (s *Uploads) OpenFinal(_ context.Context, name string) (*os.File, error) {
	fileID := strings.TrimSuffix(name, models.Ext(name))
	if err := models.ValidateFileID(fileID); err != nil {
		return nil, err
	}

	path := s.layout.FinalPath(fileID, name)
	// Для имени без расширения по этому пути может лежать staging-каталог.
	done, err := isFile(path)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, name)
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, name)
	}
	if err != nil {
		return nil, storageFault("open final file", err)
	}

	return f, nil
}
