package upload

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sir_venger/chunkmerge/internal/keylock"
	"github.com/sir_venger/chunkmerge/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type (
	// Journal хранит записи о сессиях загрузки. Журнал вспомогательный:
	// его ошибки логируются и не влияют на результат операций.
	Journal interface {
		Get(ctx context.Context, fileID string) (models.Session, error)
		Save(ctx context.Context, s models.Session) error
		Delete(ctx context.Context, fileID string) error
		All(ctx context.Context) ([]models.Session, error)
	}

	// Recorder принимает события для метрик.
	Recorder interface {
		ChunkReceived(bytes int64)
		MergeFinished(result string, d time.Duration)
		StagingRemoved(n int)
	}

	// Service объединяет приём чанков, проверку докачки и сборку файла.
	Service interface {
		AcceptChunk(ctx context.Context, fileID string, chunk models.ChunkID, src io.Reader) error
		CheckStatus(ctx context.Context, fileID, fileName string) (models.Status, error)
		Merge(ctx context.Context, req models.MergeRequest) error
		OpenFinal(ctx context.Context, name string) (*os.File, error)
		Sessions(ctx context.Context) ([]models.Session, error)
		SweepOnce(ctx context.Context, ttl time.Duration) (int, error)
		Usage(ctx context.Context) (Usage, error)
	}
)

// Результаты сборки для метрик.
const (
	MergeResultMerged  = "merged"
	MergeResultSkipped = "already_merged"
	MergeResultFailed  = "failed"
)

type Deps struct {
	Root    string
	Journal Journal
	Metrics Recorder
	Log     *zap.SugaredLogger

	// MergeWorkers ограничивает число параллельных копирований в одной сборке, 0 означает без ограничений.
	MergeWorkers int
	// MaxChunkBytes ограничивает размер одного чанка, 0 означает без ограничений.
	MaxChunkBytes int64
	// StrictChunkSize включает проверку размеров чанков перед сборкой.
	StrictChunkSize bool
}

type Uploads struct {
	Deps

	layout Layout
	locks  keylock.Map
	merges singleflight.Group
	now    func() time.Time
}

// New конструирует сервис поверх корневого каталога и создаёт служебные каталоги.
func New(deps Deps) (*Uploads, error) {
	layout := Layout{Root: deps.Root}
	if err := layout.Init(); err != nil {
		return nil, err
	}

	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}

	return &Uploads{
		Deps:   deps,
		layout: layout,
		now:    time.Now,
	}, nil
}

var _ Service = (*Uploads)(nil)

// Sessions возвращает записи журнала; без журнала список пуст.
func (s *Uploads) Sessions(ctx context.Context) ([]models.Session, error) {
	if s.Journal == nil {
		return nil, nil
	}
	return s.Journal.All(ctx)
}

type nopRecorder struct{}

func (nopRecorder) ChunkReceived(int64)                 {}
func (nopRecorder) MergeFinished(string, time.Duration) {}
func (nopRecorder) StagingRemoved(int)                  {}
