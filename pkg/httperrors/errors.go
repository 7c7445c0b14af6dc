package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sir_venger/chunkmerge/internal/models"
	"github.com/sir_venger/chunkmerge/pkg/uploadproto"
)

// Classify возвращает HTTP-статус и код ошибки для ответа.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidIdentifier):
		return http.StatusBadRequest, uploadproto.CodeInvalidIdentifier
	case errors.Is(err, models.ErrChunkSizeMismatch):
		return http.StatusBadRequest, uploadproto.CodeChunkSizeMismatch
	case errors.Is(err, models.ErrMalformedUpload):
		return http.StatusBadRequest, uploadproto.CodeMalformedUpload
	case errors.Is(err, models.ErrNoStagedChunks):
		return http.StatusConflict, uploadproto.CodeNoStagedChunks
	case errors.Is(err, models.ErrIdentifierTaken):
		return http.StatusConflict, uploadproto.CodeIdentifierTaken
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, uploadproto.CodeNotFound
	case errors.Is(err, models.ErrStorageFault):
		return http.StatusInternalServerError, uploadproto.CodeStorageFault
	default:
		return http.StatusInternalServerError, uploadproto.CodeInternal
	}
}

// Write пишет ошибку в виде JSON {"done":"bad","code":...,"msg":...}.
func Write(w http.ResponseWriter, err error) {
	status, code := Classify(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(uploadproto.Reply{
		Done: uploadproto.DoneBad,
		Code: code,
		Msg:  err.Error(),
	})
}
