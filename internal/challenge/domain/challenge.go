package domain

// ChallengeType classifies how a challenge is earned.
type ChallengeType string

const (
	ChallengeTypeDaily     ChallengeType = "daily"
	ChallengeTypeSpecial   ChallengeType = "special"
	ChallengeTypeMilestone ChallengeType = "milestone"
)

// Challenge is a coin-earning goal published by the server.
type Challenge struct {
	ID            string        `json:"_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Coins         int           `json:"coins"`
	Goal          int           `json:"goal"`
	ChallengeType ChallengeType `json:"challenge_type"`
	IsLimited     bool          `json:"is_limited"`
	ExpiresIn     *int          `json:"expires_in"` // seconds
}
