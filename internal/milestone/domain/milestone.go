package domain

// TierName orders the milestone reward ladder.
type TierName string

const (
	TierBronze   TierName = "bronze"
	TierSilver   TierName = "silver"
	TierGold     TierName = "gold"
	TierPlatinum TierName = "platinum"
)

// ProgressUnit is the measure a milestone counts in.
type ProgressUnit string

const (
	UnitHours  ProgressUnit = "hours"
	UnitDays   ProgressUnit = "days"
	UnitBlocks ProgressUnit = "blocks"
)

// TierRequirement is one rung of a milestone ladder: the progress value to
// reach and the coins it pays out.
type TierRequirement struct {
	Value int `json:"value"`
	Coins int `json:"coins"`
}

// Milestone is a long-running achievement ladder with per-tier rewards.
type Milestone struct {
	ID           string                       `json:"_id"`
	Title        string                       `json:"title"`
	Description  string                       `json:"description"`
	Tiers        map[TierName]TierRequirement `json:"tiers"`
	ProgressUnit ProgressUnit                 `json:"progress_unit"`
}
