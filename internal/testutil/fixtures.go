package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"homefund/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestHousehold creates a household with reserved categories and an
// owner membership for the given user. Budget is in cents.
func CreateTestHousehold(t *testing.T, db *gorm.DB, ownerID uint, budget int64, calc models.CalculationType) *models.Household {
	t.Helper()

	household := &models.Household{
		Name:            fmt.Sprintf("Test Household %d", nextID()),
		Currency:        "EUR",
		MonthlyBudget:   budget,
		CalculationType: calc,
	}
	if err := db.Create(household).Error; err != nil {
		t.Fatalf("failed to create test household: %v", err)
	}

	membership := &models.HouseholdMember{
		HouseholdID: household.ID,
		UserID:      ownerID,
		Role:        models.MemberRoleOwner,
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create owner membership: %v", err)
	}

	reserved := []models.Category{
		{HouseholdID: household.ID, Name: "Loan", Type: models.CategoryTypeExpense, Slug: models.CategorySlugLoan},
		{HouseholdID: household.ID, Name: "Loan repayment", Type: models.CategoryTypeIncome, Slug: models.CategorySlugLoanRepayment},
		{HouseholdID: household.ID, Name: "Savings", Type: models.CategoryTypeIncome, Slug: models.CategorySlugSavings},
	}
	for i := range reserved {
		if err := db.Create(&reserved[i]).Error; err != nil {
			t.Fatalf("failed to create reserved category: %v", err)
		}
	}
	return household
}

// AddTestMember adds a user to a household with the member role.
func AddTestMember(t *testing.T, db *gorm.DB, householdID, userID uint) *models.HouseholdMember {
	t.Helper()

	membership := &models.HouseholdMember{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        models.MemberRoleMember,
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to create test membership: %v", err)
	}
	return membership
}

// SetTestIncome records a member income effective far enough in the past to
// cover any test period.
func SetTestIncome(t *testing.T, db *gorm.DB, householdID, userID uint, amount int64) *models.MemberIncome {
	t.Helper()

	income := &models.MemberIncome{
		HouseholdID:   householdID,
		UserID:        userID,
		Amount:        amount,
		EffectiveFrom: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}

// CreateTestPeriod creates a period in the given phase with a budget
// snapshot taken from the household.
func CreateTestPeriod(t *testing.T, db *gorm.DB, household *models.Household, year, month int, phase models.PeriodPhase) *models.MonthlyPeriod {
	t.Helper()

	period := &models.MonthlyPeriod{
		HouseholdID:             household.ID,
		Year:                    year,
		Month:                   month,
		Phase:                   phase,
		SnapshotBudget:          household.MonthlyBudget,
		SnapshotCalculationType: household.CalculationType,
		ContributionEnabled:     true,
	}
	if err := db.Create(period).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return period
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, householdID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		HouseholdID: householdID,
		Name:        fmt.Sprintf("Test Category %d", nextID()),
		Type:        categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}
