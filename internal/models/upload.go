package models

import "time"

// Status описывает ответ на проверку докачки.
type Status struct {
	Complete       bool
	ExistingChunks []string
}

// MergeRequest описывает параметры сборки итогового файла.
type MergeRequest struct {
	FileID    string
	FileName  string
	ChunkSize int64
}

// Session описывает запись журнала об одной сессии загрузки.
type Session struct {
	FileID    string     `json:"file_id"`
	FileName  string     `json:"file_name,omitempty"`
	Chunks    int        `json:"chunks"`
	Size      int64      `json:"size"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
}

// Clone возвращает копию, чтобы не делиться указателем на MergedAt.
func (s Session) Clone() Session {
	out := s
	if s.MergedAt != nil {
		t := *s.MergedAt
		out.MergedAt = &t
	}
	return out
}
