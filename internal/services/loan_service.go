package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
)

// loanService implements household-internal loans. A loan is a proposed
// common expense tagged with the reserved loan category; it affects nothing
// until the owner approves it. Repayments are common income transactions in
// the reserved loan-repayment category. Debt is always derived from the
// ledger, never stored.
type loanService struct {
	db           *gorm.DB
	transactions TransactionServicer
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB, transactions TransactionServicer) LoanServicer {
	return &loanService{db: db, transactions: transactions}
}

// RequestLoan records a proposed loan for the requesting member.
func (s *loanService) RequestLoan(householdID, requesterID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, error) {
	category, err := s.reservedCategory(householdID, models.CategorySlugLoan)
	if err != nil {
		return nil, err
	}

	movement, _, err := s.transactions.Record(RecordMovementInput{
		HouseholdID:      householdID,
		PerformerID:      requesterID,
		Type:             models.TransactionTypeExpense,
		FlowType:         models.FlowTypeCommon,
		Amount:           amount,
		CategoryID:       &category.ID,
		Description:      description,
		OccurredAt:       occurredAt,
		RequiresApproval: true,
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ApproveLoan clears the approval flag on a pending loan. Owner-only. The
// conditional update makes a second approval surface LOAN_ALREADY_APPROVED
// instead of silently succeeding.
func (s *loanService) ApproveLoan(householdID, loanID, actorID uint) error {
	var membership models.HouseholdMember
	if err := s.db.Where("household_id = ? AND user_id = ?", householdID, actorID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrMembershipNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if membership.Role != models.MemberRoleOwner {
		return apperrors.ErrPermissionDenied
	}

	loan, err := s.getLoan(householdID, loanID)
	if err != nil {
		return err
	}

	res := s.db.Model(&models.Transaction{}).
		Where("id = ? AND requires_approval = ? AND approved = ?", loan.ID, true, false).
		Update("approved", true)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrLoanAlreadyApproved
	}
	return nil
}

// RepayLoan records a repayment by the member. Repaying more than the
// outstanding debt is permitted; the returned warning is for the caller to
// surface, never an error.
func (s *loanService) RepayLoan(householdID, payerID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, string, error) {
	category, err := s.reservedCategory(householdID, models.CategorySlugLoanRepayment)
	if err != nil {
		return nil, "", err
	}

	debt, err := s.MemberDebt(householdID, payerID)
	if err != nil {
		return nil, "", err
	}

	movement, _, err := s.transactions.Record(RecordMovementInput{
		HouseholdID: householdID,
		PerformerID: payerID,
		Type:        models.TransactionTypeIncome,
		FlowType:    models.FlowTypeCommon,
		Amount:      amount,
		CategoryID:  &category.ID,
		Description: description,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		return nil, "", err
	}

	var warning string
	if amount > debt {
		warning = "repayment exceeds the outstanding loan debt"
	}
	return movement, warning, nil
}

// MemberDebt derives what the member still owes the household: approved
// loans minus repayments.
func (s *loanService) MemberDebt(householdID, userID uint) (int64, error) {
	loanCategory, err := s.reservedCategory(householdID, models.CategorySlugLoan)
	if err != nil {
		return 0, err
	}
	repayCategory, err := s.reservedCategory(householdID, models.CategorySlugLoanRepayment)
	if err != nil {
		return 0, err
	}

	var borrowed int64
	err = s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("household_id = ? AND performed_by_id = ? AND category_id = ? AND approved = ?",
			householdID, userID, loanCategory.ID, true).
		Scan(&borrowed).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var repaid int64
	err = s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("household_id = ? AND performed_by_id = ? AND category_id = ?",
			householdID, userID, repayCategory.ID).
		Scan(&repaid).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return borrowed - repaid, nil
}

// PairwiseBalance derives who owes whom between two members: the signed
// difference of their aggregate contribution balances (paid minus expected)
// across all periods past preparing. Positive means userA stands ahead of
// userB.
func (s *loanService) PairwiseBalance(householdID, userA, userB uint) (int64, error) {
	balanceA, err := s.memberBalance(householdID, userA)
	if err != nil {
		return 0, err
	}
	balanceB, err := s.memberBalance(householdID, userB)
	if err != nil {
		return 0, err
	}
	return balanceA - balanceB, nil
}

func (s *loanService) memberBalance(householdID, userID uint) (int64, error) {
	var balance int64
	err := s.db.Model(&models.Contribution{}).
		Select("COALESCE(SUM(contributions.paid_amount - contributions.expected_amount), 0)").
		Joins("JOIN monthly_periods ON monthly_periods.id = contributions.period_id").
		Where("contributions.household_id = ? AND contributions.user_id = ?", householdID, userID).
		Where("monthly_periods.phase <> ?", models.PeriodPhasePreparing).
		Scan(&balance).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balance, nil
}

// getLoan loads a loan transaction: a common expense in the reserved loan
// category.
func (s *loanService) getLoan(householdID, loanID uint) (*models.Transaction, error) {
	category, err := s.reservedCategory(householdID, models.CategorySlugLoan)
	if err != nil {
		return nil, err
	}

	var loan models.Transaction
	err = s.db.Where("id = ? AND household_id = ? AND category_id = ?", loanID, householdID, category.ID).
		First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

func (s *loanService) reservedCategory(householdID uint, slug string) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("household_id = ? AND slug = ?", householdID, slug).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}
