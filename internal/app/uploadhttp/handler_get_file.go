package uploadhttp

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/chunkmerge/internal/models"
	"github.com/sir_venger/chunkmerge/pkg/httperrors"
)

// getFile отдаёт собранный файл с поддержкой Range-запросов.
func (a *Server) getFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	f, err := a.uploads.OpenFinal(r.Context(), name)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		httperrors.Write(w, fmt.Errorf("%w: stat final file: %w", models.ErrStorageFault, err))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
