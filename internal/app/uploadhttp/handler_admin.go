package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/chunkmerge/internal/models"
	"github.com/sir_venger/chunkmerge/pkg/httperrors"
)

type gcReply struct {
	Removed int `json:"removed"`
}

// gcOnce вручную запускает сбор брошенных staging-каталогов.
func (a *Server) gcOnce(w http.ResponseWriter, r *http.Request) {
	n, err := a.uploads.SweepOnce(r.Context(), a.opts.GCTTL)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	a.log.Infow("gc", "event", "manual sweep", "removed", n)
	writeJSON(w, http.StatusOK, gcReply{Removed: n})
}

// listSessions отдаёт журнал сессий загрузки.
func (a *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.uploads.Sessions(r.Context())
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}
