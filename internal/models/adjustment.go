package models

// AdjustmentKind classifies a manual delta to a member's expected amount.
type AdjustmentKind string

const (
	AdjustmentKindPrepayment AdjustmentKind = "prepayment"
	AdjustmentKindBonus      AdjustmentKind = "bonus"
	AdjustmentKindPenalty    AdjustmentKind = "penalty"
	AdjustmentKindManual     AdjustmentKind = "manual"
)

// Adjustment is a signed manual delta applied to a member's expected amount
// for a period. Always carries a reason and the creating member.
type Adjustment struct {
	Base
	HouseholdID uint           `gorm:"not null;index" json:"household_id"`
	PeriodID    uint           `gorm:"not null;index" json:"period_id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Amount      int64          `gorm:"type:bigint;not null" json:"amount"`
	Kind        AdjustmentKind `gorm:"not null" json:"kind"`
	Reason      string         `gorm:"not null" json:"reason"`
	CreatedByID uint           `gorm:"not null" json:"created_by_id"`
}
