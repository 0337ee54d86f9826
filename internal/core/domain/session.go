package domain

import "time"

type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

type SessionTurn struct {
	Role      TurnRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	ID           string        `json:"session_id"`
	Turns        []SessionTurn `json:"turns"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActiveAt time.Time     `json:"last_active_at"`
}

// SessionInfo is the read model for session metadata.
type SessionInfo struct {
	Exists       bool      `json:"exists"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	LastActiveAt time.Time `json:"last_active_at,omitempty"`
	TurnCount    int       `json:"turn_count"`
}
