package domain

import (
	"focusbuddy/internal/api"

	sessiondomain "focusbuddy/internal/session/domain"
	shopdomain "focusbuddy/internal/shop/domain"
)

// ChallengeProgress tracks a user's progress on one challenge.
type ChallengeProgress struct {
	ChallengeID string         `json:"challenge_id"`
	Progress    int            `json:"progress"`
	IsCompleted bool           `json:"is_completed"`
	LastUpdated *api.Timestamp `json:"last_updated"`
}

// MilestoneProgress tracks a user's progress on one milestone ladder.
type MilestoneProgress struct {
	MilestoneID string `json:"milestone_id"`
	Progress    int    `json:"progress"`
	CurrentTier string `json:"current_tier,omitempty"`
	NextGoal    int    `json:"next_goal,omitempty"`
}

// StudyStat is one day's aggregated study activity.
type StudyStat struct {
	Date                api.Timestamp `json:"date"`
	FocusTime           int           `json:"focus_time"`
	Sessions            int           `json:"sessions"`
	DistractionsBlocked int           `json:"distractions_blocked"`
}

// User is the /users/me snapshot: profile, gamification counters, and a
// reference to the current study session when one exists.
type User struct {
	ID                 string                      `json:"_id"`
	Name               string                      `json:"name"`
	Email              string                      `json:"email"`
	Coins              int                         `json:"coins"`
	DayStreak          int                         `json:"day_streak"`
	LongestStreak      int                         `json:"longest_streak"`
	StreakMultiplier   float64                     `json:"streak_multiplier"`
	LastActiveDate     *api.Timestamp              `json:"last_active_date"`
	Challenges         []ChallengeProgress         `json:"challenges"`
	Milestones         []MilestoneProgress         `json:"milestones"`
	PurchasedItems     []shopdomain.ShopItem       `json:"purchased_items"`
	BlockedWebsites    []string                    `json:"blocked_websites"`
	TotalFocusTime     int                         `json:"total_focus_time"`
	WeeklyFocusTime    int                         `json:"weekly_focus_time"`
	TodayFocusTime     int                         `json:"today_focus_time"`
	MonthlyFocusTime   int                         `json:"monthly_focus_time"`
	StudyStats         []StudyStat                 `json:"study_stats"`
	IsPhoneLockEnabled bool                        `json:"is_phone_lock_enabled"`
	IsActive           bool                        `json:"is_active"`
	Role               string                      `json:"role,omitempty"`
	LastLogin          *api.Timestamp              `json:"last_login"`
	CurrentSession     *sessiondomain.StudySession `json:"current_session,omitempty"`
}
