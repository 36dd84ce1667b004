package dto

import "time"

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
}

type ChatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PassageDTO struct {
	Id      string  `json:"id"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

type GetSessionResponse struct {
	SessionId     string           `json:"session_id"`
	Messages      []ChatMessageDTO `json:"messages"`
	Documents     []PassageDTO     `json:"documents"`
	LastOutcome   string           `json:"last_outcome,omitempty"`
	RephraseCount int              `json:"rephrase_count"`
	Pending       bool             `json:"pending"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
}

type SendMessageRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

// StreamFrame is one WebSocket frame of a streamed answer
type StreamFrame struct {
	Type          string `json:"type"` // fragment, done or error
	Content       string `json:"content,omitempty"`
	Outcome       string `json:"outcome,omitempty"`
	RephraseCount int    `json:"rephrase_count,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Message       string `json:"message,omitempty"`
}

const (
	FrameFragment = "fragment"
	FrameDone     = "done"
	FrameError    = "error"
)
