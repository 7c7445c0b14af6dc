package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/chunkmerge/pkg/httperrors"
)

// healthStats: payload ответа /health.
type healthStats struct {
	OK         bool  `json:"ok"`
	TotalBytes int64 `json:"total_bytes"`
	Staging    int   `json:"staging"`
	Merged     int   `json:"merged"`
}

// health возвращает агрегированную статистику по каталогу загрузок.
func (a *Server) health(w http.ResponseWriter, r *http.Request) {
	u, err := a.uploads.Usage(r.Context())
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, healthStats{
		OK:         true,
		TotalBytes: u.TotalBytes,
		Staging:    u.Staging,
		Merged:     u.Merged,
	})
}
