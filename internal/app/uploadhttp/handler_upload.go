package uploadhttp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/chunkmerge/internal/models"
	"github.com/sir_venger/chunkmerge/pkg/httperrors"
	"github.com/sir_venger/chunkmerge/pkg/uploadproto"
)

// formOverhead задаёт запас на поля формы и заголовки частей сверх размера чанка.
const formOverhead = 1 << 20

// uploadChunk принимает multipart-форму с одним чанком.
func (a *Server) uploadChunk(w http.ResponseWriter, r *http.Request) {
	if a.opts.MaxChunkBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxChunkBytes+formOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %w", models.ErrMalformedUpload, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	fileID := strings.TrimSpace(r.FormValue(uploadproto.FieldFileHash))
	chunk, err := chunkFromForm(r)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	f, _, err := r.FormFile(uploadproto.FieldChunk)
	if err != nil {
		httperrors.Write(w, fmt.Errorf("%w: chunk part: %w", models.ErrMalformedUpload, err))
		return
	}
	defer f.Close()

	if err = a.uploads.AcceptChunk(r.Context(), fileID, chunk, f); err != nil {
		a.log.Warnw("upload", "event", "rejected", "file", fileID, "chunk", chunk.String(),
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.Reply{Done: uploadproto.DoneOK, Msg: "chunk stored"})
}

// chunkFromForm разбирает chunkHash; явное поле index, если есть, задаёт индекс.
func chunkFromForm(r *http.Request) (models.ChunkID, error) {
	raw := strings.TrimSpace(r.FormValue(uploadproto.FieldChunkHash))
	idxStr := strings.TrimSpace(r.FormValue(uploadproto.FieldIndex))

	if idxStr == "" {
		return models.ParseChunkID(raw)
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return models.ChunkID{}, fmt.Errorf("%w: index %q", models.ErrInvalidIdentifier, idxStr)
	}

	hash := raw
	if id, err := models.ParseChunkID(raw); err == nil {
		hash = id.Hash
	}
	if err = models.ValidateName(hash); err != nil {
		return models.ChunkID{}, err
	}

	return models.ChunkID{Hash: hash, Index: idx}, nil
}
