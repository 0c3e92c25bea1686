package domain

import "focusbuddy/internal/api"

// Task is one planned unit of work inside a study session. Duration is in
// minutes. The server marks tasks completed greedily from the actual
// duration when the session completes.
type Task struct {
	Name      string `json:"name"`
	Duration  int    `json:"duration"`
	Completed bool   `json:"completed"`
}

// StudySession is the server's record of one study session. At most one
// session per user is current (no end time) at any moment.
//
// Invariants maintained by the server and relied on by the controller:
// PausedAt is set iff IsPaused; EndTime is set iff the session completed,
// and a completed session is never current again.
type StudySession struct {
	ID                  string         `json:"_id"`
	UserID              string         `json:"user"`
	Tasks               []Task         `json:"tasks"`
	PlannedDuration     int            `json:"planned_duration"`
	ActualDuration      *int           `json:"actual_duration"`
	StartTime           api.Timestamp  `json:"start_time"`
	EndTime             *api.Timestamp `json:"end_time"`
	IsPaused            bool           `json:"is_paused"`
	PausedAt            *api.Timestamp `json:"paused_at"`
	TotalPaused         int            `json:"total_paused"`
	LastHeartbeat       *api.Timestamp `json:"last_heartbeat"`
	DistractionsBlocked int            `json:"distractions_blocked"`
	Notes               *string        `json:"notes"`
}

// Completed reports whether the session has ended.
func (s *StudySession) Completed() bool {
	return s.EndTime != nil && !s.EndTime.IsZero()
}
