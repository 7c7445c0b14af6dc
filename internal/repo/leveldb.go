package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	ds "github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"
	dslvl "github.com/ipfs/go-ds-leveldb"
	"github.com/sir_venger/chunkmerge/internal/models"
)

const sessionsPrefix = "/sessions"

// LevelStore хранит журнал сессий в LevelDB; значения: JSON.
type LevelStore struct {
	db *dslvl.Datastore
}

// OpenLevel открывает (или создаёт) базу журнала по пути path.
func OpenLevel(path string) (*LevelStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is empty")
	}

	db, err := dslvl.NewDatastore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &LevelStore{db: db}, nil
}

func sessionKey(id string) ds.Key {
	return ds.NewKey(sessionsPrefix).ChildString(id)
}

// Get возвращает сессию по id файла или models.ErrNotFound.
func (s *LevelStore) Get(ctx context.Context, id string) (models.Session, error) {
	b, err := s.db.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, ds.ErrNotFound) {
			return models.Session{}, models.ErrNotFound
		}
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}

	var sess models.Session
	if err = json.Unmarshal(b, &sess); err != nil {
		return models.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	return sess, nil
}

// Save записывает (или обновляет) сессию.
func (s *LevelStore) Save(ctx context.Context, sess models.Session) error {
	if strings.TrimSpace(sess.FileID) == "" {
		return fmt.Errorf("file id is empty")
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Put(ctx, sessionKey(sess.FileID), b)
}

// Delete удаляет сессию.
func (s *LevelStore) Delete(ctx context.Context, id string) error {
	return s.db.Delete(ctx, sessionKey(id))
}

// All возвращает все сессии журнала.
func (s *LevelStore) All(ctx context.Context) ([]models.Session, error) {
	res, err := s.db.Query(ctx, dsq.Query{Prefix: sessionsPrefix, Orders: []dsq.Order{dsq.OrderByKey{}}})
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer res.Close()

	sessions := make([]models.Session, 0)
	for {
		r, hasNext := res.NextSync()
		if !hasNext {
			break
		}
		if r.Error != nil {
			return sessions, r.Error
		}

		var sess models.Session
		if err = json.Unmarshal(r.Value, &sess); err != nil {
			return sessions, fmt.Errorf("unmarshal session: %w", err)
		}
		sessions = append(sessions, sess)
	}

	return sessions, nil
}

// Close закрывает базу.
func (s *LevelStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
