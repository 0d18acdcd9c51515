package models

// CalculationType determines how the monthly budget is split across members.
type CalculationType string

const (
	CalculationTypeEqual        CalculationType = "equal"
	CalculationTypeProportional CalculationType = "proportional"
)

// Household represents a shared household whose members record movements
// against a common fund. MonthlyBudget and CalculationType are configuration;
// periods snapshot them at creation so later edits never alter open periods.
type Household struct {
	Base
	Name            string          `gorm:"not null" json:"name"`
	Currency        string          `gorm:"not null;default:'EUR'" json:"currency"`
	MonthlyBudget   int64           `gorm:"type:bigint;not null;default:0" json:"monthly_budget"`
	CalculationType CalculationType `gorm:"not null;default:'proportional'" json:"calculation_type"`

	// SavingsBalance accumulates credits transferred to savings, in cents.
	SavingsBalance int64 `gorm:"type:bigint;not null;default:0" json:"savings_balance"`

	// Relationships
	Members      []HouseholdMember `gorm:"foreignKey:HouseholdID" json:"members,omitempty"`
	Periods      []MonthlyPeriod   `gorm:"foreignKey:HouseholdID" json:"periods,omitempty"`
	Categories   []Category        `gorm:"foreignKey:HouseholdID" json:"categories,omitempty"`
	Transactions []Transaction     `gorm:"foreignKey:HouseholdID" json:"transactions,omitempty"`
}
