package session

import "time"

// EventType identifies the kind of session event.
type EventType string

const (
	EventSessionStart  EventType = "session_start"
	EventNavigation    EventType = "navigation"
	EventJudgment      EventType = "judgment"
	EventSubmitAttempt EventType = "submit_attempt"
	EventSessionEnd    EventType = "session_complete"
)

// Event is a single timestamped entry in a session log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// SessionStartData returns event data for a session start.
func SessionStartData(sessionID string, pageCount, pairCount int, sampledIndices []int) map[string]any {
	return map[string]any{
		"session_id":      sessionID,
		"page_count":      pageCount,
		"pair_count":      pairCount,
		"sampled_indices": sampledIndices,
	}
}

// NavigationData returns event data for a cursor move.
func NavigationData(action string, page, pairIndex int) map[string]any {
	return map[string]any{
		"action":     action,
		"page":       page,
		"pair_index": pairIndex,
	}
}

// JudgmentData returns event data for a ledger change. recorded is false
// when the selection toggled the cell back to unjudged.
func JudgmentData(page int, modelA, modelB, outcome string, recorded bool) map[string]any {
	return map[string]any{
		"page":     page,
		"model_a":  modelA,
		"model_b":  modelB,
		"outcome":  outcome,
		"recorded": recorded,
	}
}

// SubmitAttemptData returns event data for a submission attempt.
func SubmitAttemptData(evaluatorID string, judged, total int, accepted bool, reason string) map[string]any {
	d := map[string]any{
		"evaluator_id": evaluatorID,
		"judged":       judged,
		"total":        total,
		"accepted":     accepted,
	}
	if reason != "" {
		d["reason"] = reason
	}
	return d
}

// SessionEndData returns event data for a session end.
func SessionEndData(judged, total, rows int, durationMs int64) map[string]any {
	return map[string]any{
		"judged":      judged,
		"total":       total,
		"rows":        rows,
		"duration_ms": durationMs,
	}
}
