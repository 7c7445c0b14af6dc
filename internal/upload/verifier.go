package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sir_venger/chunkmerge/internal/models"
)

// CheckStatus сообщает клиенту, что осталось загрузить. Если итоговый файл уже
// есть, загрузка завершена. Иначе возвращаются чанки из staging-каталога;
// отсутствие каталога означает новую загрузку и ошибкой не является.
func (s *Uploads) CheckStatus(ctx context.Context, fileID, fileName string) (models.Status, error) {
	if err := models.ValidateFileID(fileID); err != nil {
		return models.Status{}, err
	}

	unlock := s.locks.RLock(fileID)
	defer unlock()

	done, err := isFile(s.layout.FinalPath(fileID, fileName))
	if err != nil {
		return models.Status{}, err
	}
	if done {
		return models.Status{Complete: true, ExistingChunks: []string{}}, nil
	}

	chunks, err := s.stagedChunks(fileID)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Status{ExistingChunks: []string{}}, nil
	}
	if err != nil {
		return models.Status{}, err
	}

	names := make([]string, 0, len(chunks))
	for _, c := range chunks {
		names = append(names, c.name)
	}

	return models.Status{ExistingChunks: names}, nil
}

type stagedChunk struct {
	id   models.ChunkID
	name string
	path string
}

// stagedChunks перечисляет чанки в staging-каталоге, отсортированные по числовому
// индексу. Записи с неразбираемыми именами пропускаются. Если каталога нет
// или по его пути лежит итоговый файл без расширения, возвращается ошибка,
// удовлетворяющая errors.Is(err, fs.ErrNotExist).
func (s *Uploads) stagedChunks(fileID string) ([]stagedChunk, error) {
	dir := s.layout.StagingDir(fileID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if occupied, _ := isFile(dir); occupied {
			return nil, fmt.Errorf("%w: %s is a merged file", fs.ErrNotExist, dir)
		}
		return nil, storageFault("read staging dir", err)
	}

	chunks := make([]stagedChunk, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		id, err := models.ParseChunkID(e.Name())
		if err != nil {
			continue
		}
		chunks = append(chunks, stagedChunk{id: id, name: e.Name(), path: filepath.Join(dir, e.Name())})
	}

	// Порядок определяется только числовым суффиксом.
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].id.Index != chunks[j].id.Index {
			return chunks[i].id.Index < chunks[j].id.Index
		}
		return chunks[i].id.Hash < chunks[j].id.Hash
	})

	return chunks, nil
}

// isFile сообщает, что по пути лежит обычный файл. Для имени без расширения
// итоговый путь совпадает со staging-каталогом, и каталог файлом не считается.
func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, storageFault("stat", err)
	}
}
