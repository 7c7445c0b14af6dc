// Package keylock предоставляет набор RW-блокировок, по одной на ключ.
// Записи создаются по требованию и удаляются, когда их никто не держит.
package keylock

import "sync"

type entry struct {
	mu   sync.RWMutex
	refs int
}

// Map хранит блокировки по ключам. Нулевое значение готово к использованию.
type Map struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// Lock захватывает эксклюзивную блокировку ключа и возвращает функцию освобождения.
func (m *Map) Lock(key string) func() {
	e := m.acquire(key)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.release(key, e)
	}
}

// RLock захватывает разделяемую блокировку ключа.
func (m *Map) RLock(key string) func() {
	e := m.acquire(key)
	e.mu.RLock()
	return func() {
		e.mu.RUnlock()
		m.release(key, e)
	}
}

// TryLock пытается взять эксклюзивную блокировку без ожидания.
func (m *Map) TryLock(key string) (func(), bool) {
	e := m.acquire(key)
	if !e.mu.TryLock() {
		m.release(key, e)
		return nil, false
	}
	return func() {
		e.mu.Unlock()
		m.release(key, e)
	}, true
}

// Len возвращает число ключей, для которых сейчас есть запись.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func (m *Map) acquire(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks == nil {
		m.locks = make(map[string]*entry)
	}
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	return e
}

func (m *Map) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}
