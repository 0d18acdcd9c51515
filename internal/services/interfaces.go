package services

import (
	"time"

	"gorm.io/gorm"

	"homefund/internal/models"
	"homefund/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// HouseholdServicer defines the contract for household configuration and
// membership logic.
type HouseholdServicer interface {
	CreateHousehold(ownerID uint, name, currency string, monthlyBudget int64, calculationType models.CalculationType) (*models.Household, error)
	GetHousehold(householdID, userID uint) (*models.Household, error)
	UpdateSettings(householdID, actorID uint, monthlyBudget *int64, calculationType *models.CalculationType) (*models.Household, error)
	AddMember(householdID, actorID, userID uint, role models.MemberRole) (*models.HouseholdMember, error)
	Membership(householdID, userID uint) (*models.HouseholdMember, error)
	SetMemberIncome(householdID, actorID, userID uint, amount int64, effectiveFrom time.Time) (*models.MemberIncome, error)
	EffectiveIncome(householdID, userID uint, at time.Time) (int64, error)
	CreateCategory(householdID, userID uint, name string, categoryType models.CategoryType, description string) (*models.Category, error)
	GetCategories(householdID, userID uint) ([]models.Category, error)
}

// PeriodServicer governs the monthly-period lifecycle. All transitions are
// conditional updates guarded by the expected current phase; a transition
// that affects zero rows surfaces STALE_TRANSITION instead of silently
// succeeding.
type PeriodServicer interface {
	CreatePeriod(householdID, actorID uint, year, month int) (*models.MonthlyPeriod, error)
	GetPeriod(householdID, periodID uint) (*models.MonthlyPeriod, error)
	FindPeriod(householdID uint, year, month int) (*models.MonthlyPeriod, error)
	Lock(householdID, periodID, actorID uint) error
	Open(householdID, periodID, actorID uint) error
	StartClosing(householdID, periodID, actorID uint, reason string) error
	Close(householdID, periodID, actorID uint, notes string) error
	Reopen(householdID, periodID, actorID uint) error
}

// RecordMovementInput collects the fields needed to record a movement.
type RecordMovementInput struct {
	HouseholdID uint
	PerformerID uint
	Type        models.TransactionType
	FlowType    models.FlowType
	Amount      int64
	CategoryID  *uint
	PeriodID    *uint
	Description string
	OccurredAt  time.Time

	// Set by the loan subsystem for proposed loans.
	RequiresApproval bool
}

// MovementPatch holds the editable fields of a movement. For a paired
// direct-flow movement the amount, date, and category deltas apply to both
// halves; the compensatory half's description is derived, not editable.
type MovementPatch struct {
	Amount      *int64
	CategoryID  *uint
	OccurredAt  *time.Time
	Description *string
}

// TransactionFilter holds optional filter parameters for listing movements.
type TransactionFilter struct {
	FromDate    *time.Time
	ToDate      *time.Time
	Type        *models.TransactionType
	FlowType    *models.FlowType
	CategoryID  *uint
	PerformerID *uint
	PeriodID    *uint
}

// TransactionServicer defines the contract for the transaction ledger,
// including compensatory pairing of direct-flow movements.
type TransactionServicer interface {
	Record(input RecordMovementInput) (*models.Transaction, *models.Transaction, error)
	Edit(householdID, transactionID uint, patch MovementPatch) (*models.Transaction, error)
	Delete(householdID, transactionID uint) error
	GetByID(householdID, transactionID uint) (*models.Transaction, error)
	ListTransactions(householdID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// ContributionReport is the result of the contribution calculation for one
// period.
type ContributionReport struct {
	Period  models.MonthlyPeriod  `json:"period"`
	Members []models.Contribution `json:"members"`
}

// ContributionServicer defines the contract for the contribution calculator.
// Recompute is idempotent and re-runnable at any time: it reads ledger data
// and refreshes the cached contribution rows without double-counting.
type ContributionServicer interface {
	Recompute(tx *gorm.DB, householdID, periodID uint) ([]models.Contribution, error)
	GetContributions(householdID, userID uint, year, month int) (*ContributionReport, error)
	AddAdjustment(householdID, actorID, userID, periodID uint, amount int64, kind models.AdjustmentKind, reason string) (*models.Adjustment, error)
}

// CreditServicer defines the contract for the credit engine.
type CreditServicer interface {
	DetectOverpayments(tx *gorm.DB, householdID, periodID uint) ([]models.Credit, error)
	ApplyDecision(creditID, actorID uint, decision models.CreditDecision) error
	ListMemberCredits(householdID, userID uint) ([]models.Credit, error)
}

// LoanServicer defines the contract for household-internal loans. Loans are
// transaction-backed: a proposed common expense tagged with the reserved loan
// category, affecting balances only once approved.
type LoanServicer interface {
	RequestLoan(householdID, requesterID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, error)
	ApproveLoan(householdID, loanID, actorID uint) error
	RepayLoan(householdID, payerID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, string, error)
	MemberDebt(householdID, userID uint) (int64, error)
	PairwiseBalance(householdID, userA, userB uint) (int64, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, householdID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
