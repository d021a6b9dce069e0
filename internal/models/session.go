// internal/models/session.go
package models

import (
	"encoding/json"
	"time"
)

type Mode string

const (
	ModeCreate  Mode = "create"
	ModeEnhance Mode = "enhance"
)

func (m Mode) Valid() bool {
	return m == ModeCreate || m == ModeEnhance
}

// Session is one designer workspace. Both document halves are embedded so
// the serialized state stays a flat object.
type Session struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CurriculumDocument
	EnhancementDocument
}

// NewSession returns an empty session in the given mode.
func NewSession(id string, mode Mode, now time.Time) *Session {
	return &Session{
		ID:        id,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset clears both documents and switches mode. Identity is kept.
func (s *Session) Reset(mode Mode, now time.Time) {
	id, created := s.ID, s.CreatedAt
	*s = *NewSession(id, mode, now)
	s.CreatedAt = created
}

// Clone returns a deep copy, including the unpersisted uploads.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		panic("models: session not serializable: " + err.Error())
	}
	out := &Session{}
	if err := json.Unmarshal(data, out); err != nil {
		panic("models: session round trip failed: " + err.Error())
	}
	if s.UploadedFiles != nil {
		out.UploadedFiles = append([]UploadedFile(nil), s.UploadedFiles...)
	}
	return out
}

// Summary is the listing view of a session.
type Summary struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Session) Summary() Summary {
	return Summary{ID: s.ID, Mode: s.Mode, Title: s.Title(), UpdatedAt: s.UpdatedAt}
}

// Title is the topic in create mode and the analyzed course name in
// enhance mode, falling back to "curriculum".
func (s *Session) Title() string {
	switch s.Mode {
	case ModeEnhance:
		if s.AnalysisReportStructured != nil && s.AnalysisReportStructured.CourseName != "" {
			return s.AnalysisReportStructured.CourseName
		}
	default:
		if s.CourseInfo != nil && s.CourseInfo.Topic != "" {
			return s.CourseInfo.Topic
		}
	}
	return "curriculum"
}
