package meta

import (
	"context"
	"sort"
	"sync"

	"github.com/sir_venger/chunkmerge/internal/models"
)

// MemoryStore хранит журнал сессий только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]models.Session{}}
}

// Get возвращает сессию по id файла или models.ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, models.ErrNotFound
	}
	return sess.Clone(), nil
}

// Save записывает (или обновляет) сессию целиком.
func (s *MemoryStore) Save(_ context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.FileID] = sess.Clone()
	return nil
}

// Delete удаляет сессию; отсутствие записи ошибкой не считается.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// All возвращает все сессии, отсортированные по id.
func (s *MemoryStore) All(_ context.Context) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileID < out[j].FileID })
	return out, nil
}
