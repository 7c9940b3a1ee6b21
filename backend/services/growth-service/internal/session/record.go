// Package session keeps one family's latest assessment and chat transcript between requests.
package session

import (
	"context"
	"errors"
	"time"

	"growthwatch/backend/services/growth-service/internal/growth"
)

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session: record not found")

// Record is the session-held result of the latest form submission.
type Record struct {
	ID                  string             `json:"id"`
	ChildName           string             `json:"child_name,omitempty"`
	Measurement         growth.Measurement `json:"measurement"`
	Result              growth.Result      `json:"result"`
	Chart               growth.ChartData   `json:"chart"`
	Guide               string             `json:"guide"`
	Recommendation      string             `json:"recommendation,omitempty"`
	RecommendationError string             `json:"recommendation_error,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ChatMessage is one line of the chatbot transcript.
type ChatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Store persists records and transcripts keyed by session id.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, record Record) error
	Delete(ctx context.Context, id string) error
	AppendChat(ctx context.Context, id string, msgs ...ChatMessage) error
	Chat(ctx context.Context, id string) ([]ChatMessage, error)
}
