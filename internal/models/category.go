package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Reserved category slugs created with every household. Loans and their
// repayments are ordinary transactions tagged with these categories.
const (
	CategorySlugLoan          = "loan"
	CategorySlugLoanRepayment = "loan-repayment"
	CategorySlugSavings       = "savings"
)

// Category represents a transaction category scoped to a household.
type Category struct {
	Base
	HouseholdID uint         `gorm:"not null;index" json:"household_id"`
	Name        string       `gorm:"not null" json:"name"`
	Type        CategoryType `gorm:"not null" json:"type"`
	Slug        string       `gorm:"index" json:"slug,omitempty"`
	Description string       `json:"description"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}
