package uploadhttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/chunkmerge/internal/models"
	"github.com/sir_venger/chunkmerge/pkg/httperrors"
	"github.com/sir_venger/chunkmerge/pkg/uploadproto"
)

// merge собирает файл из загруженных чанков.
func (a *Server) merge(w http.ResponseWriter, r *http.Request) {
	var req uploadproto.MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %w", models.ErrMalformedUpload, err))
		return
	}

	err := a.uploads.Merge(r.Context(), models.MergeRequest{
		FileID:    req.FileHash,
		FileName:  req.FileName,
		ChunkSize: req.Size,
	})
	if err != nil {
		a.log.Warnw("merge", "event", "failed", "file", req.FileHash,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.Reply{Done: uploadproto.DoneOK, Msg: "merged"})
}
