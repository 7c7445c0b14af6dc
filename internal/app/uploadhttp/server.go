package uploadhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sir_venger/chunkmerge/internal/metrics"
	"github.com/sir_venger/chunkmerge/internal/upload"
	"github.com/sir_venger/chunkmerge/pkg/uploadproto"
	"go.uber.org/zap"
)

// multipartMemory ограничивает часть формы в памяти, остальное уходит во временные файлы.
const multipartMemory = 8 << 20

type Options struct {
	// MaxChunkBytes ограничивает тело запроса загрузки, 0 означает без ограничений.
	MaxChunkBytes int64
	// GCTTL задаёт возраст брошенной загрузки для ручного GC.
	GCTTL    time.Duration
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      *zap.SugaredLogger
}

// Server обслуживает HTTP API поверх сервиса загрузок.
type Server struct {
	uploads upload.Service
	opts    Options
	log     *zap.SugaredLogger
}

// New создаёт HTTP-обработчик поверх сервиса загрузок.
func New(uploads upload.Service, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.GCTTL <= 0 {
		opts.GCTTL = 24 * time.Hour
	}

	srv := &Server{
		uploads: uploads,
		opts:    opts,
		log:     opts.Log,
	}

	return srv.routes()
}

// routes регистрирует обработчики загрузки, проверки, сборки и служебные.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if a.opts.Metrics != nil {
		r.Use(a.opts.Metrics.Middleware)
	}

	r.Post(uploadproto.PathUpload, a.uploadChunk)
	r.Post(uploadproto.PathVerify, a.verify)
	r.Post(uploadproto.PathMerge, a.merge)
	r.Get(uploadproto.PathFiles+"/{name}", a.getFile)
	r.Get(uploadproto.PathHealth, a.health)

	if a.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/admin", func(ar chi.Router) {
		ar.Post("/gc", a.gcOnce)
		ar.Get("/uploads", a.listSessions)
	})

	return r
}
