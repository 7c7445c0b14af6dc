package upload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sir_venger/chunkmerge/internal/models"
)

// incomingDirName называет служебный каталог для временных файлов. Он лежит на том же
// томе, что и staging, поэтому rename оттуда атомарен.
const incomingDirName = ".incoming"

const (
	partSuffix  = ".part"
	mergeSuffix = ".merge"
)

// Layout вычисляет пути внутри корня хранилища:
//   - <root>/<fileID>/<chunkID>: staging-каталог с чанками;
//   - <root>/<fileID><ext>: итоговый файл;
//   - <root>/.incoming/: временные файлы.
type Layout struct {
	Root string
}

// Init создаёт корень и каталог временных файлов.
func (l Layout) Init() error {
	if l.Root == "" {
		return fmt.Errorf("%w: upload root is empty", models.ErrStorageFault)
	}
	if err := os.MkdirAll(l.IncomingDir(), 0o755); err != nil {
		return storageFault("init root", err)
	}
	return nil
}

func (l Layout) StagingDir(fileID string) string {
	return filepath.Join(l.Root, fileID)
}

func (l Layout) ChunkPath(fileID string, chunk models.ChunkID) string {
	return filepath.Join(l.Root, fileID, chunk.String())
}

func (l Layout) FinalPath(fileID, fileName string) string {
	return filepath.Join(l.Root, fileID+models.Ext(fileName))
}

func (l Layout) IncomingDir() string {
	return filepath.Join(l.Root, incomingDirName)
}

// createTemp эксклюзивно создаёт уникальный временный файл в .incoming.
func (l Layout) createTemp(suffix string) (*os.File, error) {
	name := filepath.Join(l.IncomingDir(), uuid.NewString()+suffix)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, storageFault("create temp", err)
	}
	return f, nil
}

// storageFault помечает ошибку файловой системы как ErrStorageFault.
func storageFault(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrStorageFault, op, err)
}
