package models

// ContributionStatus summarizes a member's standing for a period.
type ContributionStatus string

const (
	ContributionStatusPending  ContributionStatus = "pending"
	ContributionStatusPartial  ContributionStatus = "partial"
	ContributionStatusPaid     ContributionStatus = "paid"
	ContributionStatusOverpaid ContributionStatus = "overpaid"
)

// Contribution is the cached result of the contribution calculation for one
// member and period. Rows are recomputed from ledger data, never hand-edited;
// manual changes go through Adjustments. PendingAmount and OverpaidAmount are
// mutually exclusive: at most one is ever positive.
type Contribution struct {
	Base
	HouseholdID uint `gorm:"not null;index" json:"household_id"`
	PeriodID    uint `gorm:"not null;uniqueIndex:idx_period_user" json:"period_id"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_period_user" json:"user_id"`

	BaseExpected   int64 `gorm:"type:bigint;not null" json:"base_expected"`
	ExpectedAmount int64 `gorm:"type:bigint;not null" json:"expected_amount"`
	PaidAmount     int64 `gorm:"type:bigint;not null" json:"paid_amount"`
	PendingAmount  int64 `gorm:"type:bigint;not null" json:"pending_amount"`
	OverpaidAmount int64 `gorm:"type:bigint;not null" json:"overpaid_amount"`

	Status            ContributionStatus `gorm:"not null" json:"status"`
	CalculationMethod CalculationType    `gorm:"not null" json:"calculation_method"`

	// Relationships
	User   User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Period MonthlyPeriod `gorm:"foreignKey:PeriodID" json:"period,omitempty"`
}
