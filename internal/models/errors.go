package models

import "errors"

var (
	ErrMalformedUpload   = errors.New("malformed upload")
	ErrNoStagedChunks    = errors.New("no staged chunks")
	ErrStorageFault      = errors.New("storage fault")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrChunkSizeMismatch = errors.New("chunk size mismatch")
	ErrNotFound          = errors.New("not found")
	ErrIdentifierTaken   = errors.New("identifier taken by merged file")
)
