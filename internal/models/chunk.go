package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ChunkSeparator отделяет хеш файла от порядкового номера в идентификаторе чанка.
const ChunkSeparator = "-"

// ChunkID описывает чанк явными хешем и индексом.
type ChunkID struct {
	Hash  string
	Index int
}

// String возвращает проводную форму <hash>-<index>, она же имя файла в staging-каталоге.
func (c ChunkID) String() string {
	return c.Hash + ChunkSeparator + strconv.Itoa(c.Index)
}

// ParseChunkID разбирает <hash>-<index> по последнему разделителю,
// поэтому хеш сам может содержать '-'.
func ParseChunkID(s string) (ChunkID, error) {
	i := strings.LastIndex(s, ChunkSeparator)
	if i <= 0 || i == len(s)-1 {
		return ChunkID{}, fmt.Errorf("%w: chunk id %q", ErrInvalidIdentifier, s)
	}

	idx, err := strconv.Atoi(s[i+1:])
	if err != nil || idx < 0 {
		return ChunkID{}, fmt.Errorf("%w: chunk index in %q", ErrInvalidIdentifier, s)
	}

	id := ChunkID{Hash: s[:i], Index: idx}
	if err := ValidateName(id.Hash); err != nil {
		return ChunkID{}, err
	}

	return id, nil
}

// ValidateFileID проверяет, что идентификатор файла пригоден как имя каталога в корне хранилища.
func ValidateFileID(id string) error {
	return ValidateName(id)
}

// ValidateName запрещает пустые имена, разделители путей и имена, начинающиеся с точки.
// Служебные записи корня начинаются с '.', так что пересечься с ними нельзя.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidIdentifier, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidIdentifier, name)
	}

	return nil
}

// Ext возвращает расширение имени файла: подстроку от последней точки (включительно).
// Имя без точки даёт пустое расширение.
func Ext(fileName string) string {
	i := strings.LastIndex(fileName, ".")
	if i < 0 {
		return ""
	}
	ext := fileName[i:]
	if strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
