package domain

import (
	"fmt"
	"time"
)

// Priority ranks how urgently a user should act on a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ActionItem is a single recommendation surfaced to the user.
type ActionItem struct {
	Text     string   `json:"text"`
	URL      string   `json:"url,omitempty"`
	Priority Priority `json:"priority"`
}

// AnalysisResult is the structured outcome of evaluating one policy document.
// Field names follow the wire contract consumed by clients.
type AnalysisResult struct {
	Score       int          `json:"score"`
	Summary     string       `json:"summary"`
	RedFlags    []string     `json:"red_flags"`
	ActionItems []ActionItem `json:"user_action_items"`
	Timestamp   time.Time    `json:"timestamp"`
	SourceURL   string       `json:"url"`
}

// Validate enforces the contract before a result is stored or returned.
// Out-of-range scores are rejected, never clamped.
func (r AnalysisResult) Validate() error {
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score %d outside [0,100]", r.Score)
	}
	for i, item := range r.ActionItems {
		switch item.Priority {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			return fmt.Errorf("action item %d: unknown priority %q", i, item.Priority)
		}
	}
	return nil
}

// AnalysisRecord is the persisted snapshot of one completed analysis,
// keyed by the derived content hash.
type AnalysisRecord struct {
	Key       string
	SourceURL string
	Score     int
	Summary   string
	RedFlags  []string
	Provider  string
	CreatedAt time.Time
}
