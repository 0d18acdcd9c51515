package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome        TransactionType = "income"
	TransactionTypeExpense       TransactionType = "expense"
	TransactionTypeIncomeDirect  TransactionType = "income_direct"
	TransactionTypeExpenseDirect TransactionType = "expense_direct"
)

// FlowType distinguishes movements against the common fund from movements a
// member pays personally (which carry an automatic compensatory pair entry).
type FlowType string

const (
	FlowTypeCommon FlowType = "common"
	FlowTypeDirect FlowType = "direct"
)

// Transaction represents a recorded movement in the household ledger.
// Direct-flow movements always exist as a pair: the recorded half and a
// compensatory half of opposite type and equal amount sharing
// TransactionPairID. Deleting either half deletes both.
type Transaction struct {
	Base
	HouseholdID   uint            `gorm:"not null;index" json:"household_id"`
	PeriodID      *uint           `gorm:"index" json:"period_id,omitempty"`
	CategoryID    *uint           `json:"category_id,omitempty"`
	Type          TransactionType `gorm:"not null" json:"type"`
	FlowType      FlowType        `gorm:"not null" json:"flow_type"`
	Amount        int64           `gorm:"type:bigint;not null" json:"amount"`
	Description   string          `json:"description"`
	OccurredAt    time.Time       `gorm:"not null;index" json:"occurred_at"`
	PerformedByID uint            `gorm:"not null;index" json:"performed_by_id"`

	// TransactionPairID links the two halves of a direct-flow pair.
	TransactionPairID *string `gorm:"type:uuid;index" json:"transaction_pair_id,omitempty"`

	// Loan transactions are proposed with RequiresApproval set and do not
	// affect balances until Approved.
	RequiresApproval bool `gorm:"not null;default:false" json:"requires_approval"`
	Approved         bool `gorm:"not null;default:false" json:"approved"`

	// Relationships
	Period      *MonthlyPeriod `gorm:"foreignKey:PeriodID" json:"period,omitempty"`
	Category    *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	PerformedBy User           `gorm:"foreignKey:PerformedByID" json:"performed_by,omitempty"`
}

// IsDirect reports whether the transaction is half of a direct-flow pair.
func (t *Transaction) IsDirect() bool {
	return t.FlowType == FlowTypeDirect
}

// CompensatoryType returns the transaction type of the opposite pair half.
func (t *Transaction) CompensatoryType() TransactionType {
	if t.Type == TransactionTypeExpenseDirect {
		return TransactionTypeIncomeDirect
	}
	return TransactionTypeExpenseDirect
}
