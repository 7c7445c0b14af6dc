package uploadhttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sir_venger/chunkmerge/internal/models"
	"github.com/sir_venger/chunkmerge/pkg/httperrors"
	"github.com/sir_venger/chunkmerge/pkg/uploadproto"
)

// verify отвечает, нужно ли загружать файл и какие чанки уже есть.
func (a *Server) verify(w http.ResponseWriter, r *http.Request) {
	var req uploadproto.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %w", models.ErrMalformedUpload, err))
		return
	}

	st, err := a.uploads.CheckStatus(r.Context(), req.FileHash, req.FileName)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	reply := uploadproto.VerifyReply{
		Done:         uploadproto.DoneOK,
		ShouldUpload: !st.Complete,
		ExistChunks:  st.ExistingChunks,
	}
	if reply.ExistChunks == nil {
		reply.ExistChunks = []string{}
	}

	writeJSON(w, http.StatusOK, reply)
}
