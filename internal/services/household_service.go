package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
)

// householdService handles household configuration and membership logic.
type householdService struct {
	db *gorm.DB
}

// NewHouseholdService creates a new HouseholdServicer.
func NewHouseholdService(db *gorm.DB) HouseholdServicer {
	return &householdService{db: db}
}

// reservedCategories are created with every household. The loan subsystem
// and the credit engine tag their transactions with these.
var reservedCategories = []models.Category{
	{Name: "Loan", Type: models.CategoryTypeExpense, Slug: models.CategorySlugLoan},
	{Name: "Loan repayment", Type: models.CategoryTypeIncome, Slug: models.CategorySlugLoanRepayment},
	{Name: "Savings", Type: models.CategoryTypeIncome, Slug: models.CategorySlugSavings},
}

// CreateHousehold creates a household with its owner membership and the
// reserved categories.
func (s *householdService) CreateHousehold(
	ownerID uint,
	name, currency string,
	monthlyBudget int64,
	calculationType models.CalculationType,
) (*models.Household, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "household name is required")
	}
	if monthlyBudget < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "monthly budget cannot be negative")
	}

	household := &models.Household{
		Name:            name,
		Currency:        currency,
		MonthlyBudget:   monthlyBudget,
		CalculationType: calculationType,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(household).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		membership := &models.HouseholdMember{
			HouseholdID: household.ID,
			UserID:      ownerID,
			Role:        models.MemberRoleOwner,
		}
		if err := tx.Create(membership).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for _, c := range reservedCategories {
			category := c
			category.HouseholdID = household.ID
			if err := tx.Create(&category).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return household, nil
}

// GetHousehold returns a household if the user is a member of it.
func (s *householdService) GetHousehold(householdID, userID uint) (*models.Household, error) {
	if _, err := s.Membership(householdID, userID); err != nil {
		return nil, err
	}

	var household models.Household
	if err := s.db.Preload("Members.User").First(&household, householdID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &household, nil
}

// UpdateSettings changes the household budget and calculation type.
// Owner-only. Open periods are unaffected: they carry snapshots taken at
// creation time.
func (s *householdService) UpdateSettings(
	householdID, actorID uint,
	monthlyBudget *int64,
	calculationType *models.CalculationType,
) (*models.Household, error) {
	if err := s.requireOwner(householdID, actorID); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if monthlyBudget != nil {
		if *monthlyBudget < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "monthly budget cannot be negative")
		}
		updates["monthly_budget"] = *monthlyBudget
	}
	if calculationType != nil {
		updates["calculation_type"] = *calculationType
	}

	var household models.Household
	if err := s.db.First(&household, householdID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if len(updates) > 0 {
		if err := s.db.Model(&household).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &household, nil
}

// AddMember adds a user to the household. Owner-only.
func (s *householdService) AddMember(householdID, actorID, userID uint, role models.MemberRole) (*models.HouseholdMember, error) {
	if err := s.requireOwner(householdID, actorID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	s.db.Model(&models.HouseholdMember{}).
		Where("household_id = ? AND user_id = ?", householdID, userID).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateMember
	}

	if role == "" {
		role = models.MemberRoleMember
	}
	membership := &models.HouseholdMember{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        role,
	}
	if err := s.db.Create(membership).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return membership, nil
}

// Membership returns the membership record linking a user to a household.
func (s *householdService) Membership(householdID, userID uint) (*models.HouseholdMember, error) {
	var membership models.HouseholdMember
	if err := s.db.Where("household_id = ? AND user_id = ?", householdID, userID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &membership, nil
}

// SetMemberIncome records a member's monthly income effective from a date.
// Members may set their own income; the owner may set anyone's.
func (s *householdService) SetMemberIncome(
	householdID, actorID, userID uint,
	amount int64,
	effectiveFrom time.Time,
) (*models.MemberIncome, error) {
	if amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "income cannot be negative")
	}
	if actorID != userID {
		if err := s.requireOwner(householdID, actorID); err != nil {
			return nil, err
		}
	}
	if _, err := s.Membership(householdID, userID); err != nil {
		return nil, err
	}

	if effectiveFrom.IsZero() {
		effectiveFrom = time.Now()
	}

	income := &models.MemberIncome{
		HouseholdID:   householdID,
		UserID:        userID,
		Amount:        amount,
		EffectiveFrom: effectiveFrom,
	}
	if err := s.db.Create(income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return income, nil
}

// EffectiveIncome returns the member's income at the given time: the row
// with the latest effective date not after it. Zero when no row matches.
func (s *householdService) EffectiveIncome(householdID, userID uint, at time.Time) (int64, error) {
	var income models.MemberIncome
	err := s.db.Where("household_id = ? AND user_id = ? AND effective_from <= ?", householdID, userID, at).
		Order("effective_from DESC").
		First(&income).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return income.Amount, nil
}

// CreateCategory adds a category to the household.
func (s *householdService) CreateCategory(
	householdID, userID uint,
	name string,
	categoryType models.CategoryType,
	description string,
) (*models.Category, error) {
	if _, err := s.Membership(householdID, userID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "category name is required")
	}

	category := &models.Category{
		HouseholdID: householdID,
		Name:        name,
		Type:        categoryType,
		Description: description,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetCategories lists the household's categories.
func (s *householdService) GetCategories(householdID, userID uint) ([]models.Category, error) {
	if _, err := s.Membership(householdID, userID); err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Where("household_id = ?", householdID).
		Order("name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// requireOwner fails with PERMISSION_DENIED unless the user is the
// household's owner.
func (s *householdService) requireOwner(householdID, userID uint) error {
	membership, err := s.Membership(householdID, userID)
	if err != nil {
		return err
	}
	if membership.Role != models.MemberRoleOwner {
		return apperrors.ErrPermissionDenied
	}
	return nil
}
