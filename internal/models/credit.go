package models

// CreditDecision is a member's chosen disposition for a credit.
type CreditDecision string

const (
	CreditDecisionApplyToMonth      CreditDecision = "apply_to_month"
	CreditDecisionKeepActive        CreditDecision = "keep_active"
	CreditDecisionTransferToSavings CreditDecision = "transfer_to_savings"
)

// Credit is an amount owed back to a member, generated when their paid
// amount exceeded the expected amount in a closed period. Applying a credit
// is idempotent: the Applied flag flips together with the balance side
// effect, and a credit is never applied twice.
type Credit struct {
	Base
	HouseholdID    uint  `gorm:"not null;index" json:"household_id"`
	UserID         uint  `gorm:"not null;uniqueIndex:idx_credit_source" json:"user_id"`
	Amount         int64 `gorm:"type:bigint;not null" json:"amount"`
	SourcePeriodID uint  `gorm:"not null;uniqueIndex:idx_credit_source" json:"source_period_id"`

	MonthlyDecision *CreditDecision `json:"monthly_decision,omitempty"`
	AutoApply       bool            `gorm:"not null;default:false" json:"auto_apply"`
	Applied         bool            `gorm:"not null;default:false" json:"applied"`
	AppliedPeriodID *uint           `json:"applied_period_id,omitempty"`

	// Relationships
	User         User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SourcePeriod MonthlyPeriod `gorm:"foreignKey:SourcePeriodID" json:"source_period,omitempty"`
}
