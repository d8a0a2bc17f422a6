package types

import "time"

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in an agent conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ScoreResult is an oracle-assigned attractiveness score in [0,100].
type ScoreResult struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type Action string

const (
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// Decision is the hold/sell verdict for a single position.
type Decision struct {
	Action Action `json:"decision"`
	Reason string `json:"reason"`
	Raw    string `json:"raw,omitempty"`
}

// CycleReport summarises one daily cycle.
type CycleReport struct {
	RunID     string         `json:"run_id"`
	Date      string         `json:"date"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Scores    map[string]int `json:"scores"`
	Sold      []string       `json:"sold"`
	Bought    []string       `json:"bought"`
	Holdings  int            `json:"holdings"`
}
