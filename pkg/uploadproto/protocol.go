// Package uploadproto описывает HTTP-протокол сервиса докачки: пути, поля формы и тела JSON.
package uploadproto

// Пути API.
const (
	PathUpload = "/upload"
	PathVerify = "/verify"
	PathMerge  = "/merge"
	PathHealth = "/health"
	PathFiles  = "/files"
)

// Поля multipart-формы загрузки чанка.
const (
	FieldFileHash  = "fileHash"
	FieldChunkHash = "chunkHash"
	FieldIndex     = "index"
	FieldChunk     = "chunk"
)

// Значения поля done.
const (
	DoneOK  = "well"
	DoneBad = "bad"
)

// Коды ошибок в ответах; по ним клиент различает отказы без разбора текста.
const (
	CodeMalformedUpload   = "malformed_upload"
	CodeNoStagedChunks    = "no_staged_chunks"
	CodeInvalidIdentifier = "invalid_identifier"
	CodeChunkSizeMismatch = "chunk_size_mismatch"
	CodeStorageFault      = "storage_fault"
	CodeNotFound          = "not_found"
	CodeIdentifierTaken   = "identifier_taken"
	CodeInternal          = "internal"
)

type Reply struct {
	Done string `json:"done"`
	Code string `json:"code,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

type VerifyRequest struct {
	FileHash string `json:"fileHash"`
	FileName string `json:"fileName"`
}

type VerifyReply struct {
	Done         string   `json:"done"`
	ShouldUpload bool     `json:"shouldUpload"`
	ExistChunks  []string `json:"existChunks"`
}

type MergeRequest struct {
	FileHash string `json:"fileHash"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}
