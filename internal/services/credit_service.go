package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
)

// creditService implements the credit engine: overpaid contributions in a
// closed period turn into credits, and each credit is spent exactly once
// according to the member's chosen disposition.
type creditService struct {
	db            *gorm.DB
	contributions ContributionServicer
}

// NewCreditService creates a new CreditServicer.
func NewCreditService(db *gorm.DB, contributions ContributionServicer) CreditServicer {
	return &creditService{db: db, contributions: contributions}
}

// DetectOverpayments creates a credit for every member whose paid amount
// exceeded their expected amount in the period. Re-running it never creates
// a second credit for the same (member, source period).
func (s *creditService) DetectOverpayments(tx *gorm.DB, householdID, periodID uint) ([]models.Credit, error) {
	if tx == nil {
		tx = s.db
	}

	var overpaid []models.Contribution
	if err := tx.Where("household_id = ? AND period_id = ? AND overpaid_amount > 0", householdID, periodID).
		Find(&overpaid).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := make([]models.Credit, 0, len(overpaid))
	for _, row := range overpaid {
		var count int64
		tx.Model(&models.Credit{}).
			Where("user_id = ? AND source_period_id = ?", row.UserID, periodID).
			Count(&count)
		if count > 0 {
			continue
		}

		credit := models.Credit{
			HouseholdID:    householdID,
			UserID:         row.UserID,
			Amount:         row.OverpaidAmount,
			SourcePeriodID: periodID,
		}
		if err := tx.Create(&credit).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		created = append(created, credit)
	}
	return created, nil
}

// ApplyDecision applies the member's chosen disposition for a credit. The
// applied flag flips together with its balance side effect in one database
// transaction; the conditional update on the flag makes a second application
// a no-op that surfaces CREDIT_ALREADY_APPLIED.
func (s *creditService) ApplyDecision(creditID, actorID uint, decision models.CreditDecision) error {
	credit, err := s.getCredit(creditID)
	if err != nil {
		return err
	}
	if err := s.authorize(credit, actorID); err != nil {
		return err
	}
	if credit.Applied {
		return apperrors.ErrCreditAlreadyUsed
	}

	switch decision {
	case models.CreditDecisionKeepActive:
		if err := s.db.Model(credit).Update("monthly_decision", decision).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	case models.CreditDecisionApplyToMonth:
		return s.applyToActivePeriod(credit)
	case models.CreditDecisionTransferToSavings:
		return s.transferToSavings(credit)
	default:
		return apperrors.WithMessage(apperrors.ErrValidationFailed, "unsupported credit decision")
	}
}

// ListMemberCredits returns a member's credits, newest first.
func (s *creditService) ListMemberCredits(householdID, userID uint) ([]models.Credit, error) {
	var credits []models.Credit
	if err := s.db.Preload("SourcePeriod").
		Where("household_id = ? AND user_id = ?", householdID, userID).
		Order("created_at DESC").
		Find(&credits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return credits, nil
}

// applyToActivePeriod spends the credit against the member's contribution
// for the household's current active period.
func (s *creditService) applyToActivePeriod(credit *models.Credit) error {
	var period models.MonthlyPeriod
	err := s.db.Where("household_id = ? AND phase = ?", credit.HouseholdID, models.PeriodPhaseActive).
		Order("year DESC, month DESC").
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.WithMessage(apperrors.ErrPreconditionNotMet, "household has no active period to apply the credit to")
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.markApplied(tx, credit, models.CreditDecisionApplyToMonth, &period.ID); err != nil {
			return err
		}
		// The applied credit flows into PaidAmount through the calculator,
		// which keeps the operation idempotent under later recomputes.
		_, err := s.contributions.Recompute(tx, credit.HouseholdID, period.ID)
		return err
	})
}

// transferToSavings moves the credit into the household savings balance,
// recorded as a common income transaction in the reserved savings category.
// Irreversible.
func (s *creditService) transferToSavings(credit *models.Credit) error {
	var category models.Category
	err := s.db.Where("household_id = ? AND slug = ?", credit.HouseholdID, models.CategorySlugSavings).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.markApplied(tx, credit, models.CreditDecisionTransferToSavings, nil); err != nil {
			return err
		}

		movement := &models.Transaction{
			HouseholdID:   credit.HouseholdID,
			CategoryID:    &category.ID,
			Type:          models.TransactionTypeIncome,
			FlowType:      models.FlowTypeCommon,
			Amount:        credit.Amount,
			Description:   "Credit transferred to savings",
			OccurredAt:    time.Now(),
			PerformedByID: credit.UserID,
		}
		if err := tx.Create(movement).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		res := tx.Model(&models.Household{}).
			Where("id = ?", credit.HouseholdID).
			Update("savings_balance", gorm.Expr("savings_balance + ?", credit.Amount))
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		return nil
	})
}

// markApplied is the idempotency gate: a conditional update on the applied
// flag. Zero affected rows means another application won the race.
func (s *creditService) markApplied(tx *gorm.DB, credit *models.Credit, decision models.CreditDecision, appliedPeriodID *uint) error {
	res := tx.Model(&models.Credit{}).
		Where("id = ? AND applied = ?", credit.ID, false).
		Updates(map[string]interface{}{
			"applied":           true,
			"monthly_decision":  decision,
			"applied_period_id": appliedPeriodID,
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCreditAlreadyUsed
	}
	return nil
}

// authorize permits the credit's owner or the household owner.
func (s *creditService) authorize(credit *models.Credit, actorID uint) error {
	if credit.UserID == actorID {
		return nil
	}
	var membership models.HouseholdMember
	if err := s.db.Where("household_id = ? AND user_id = ?", credit.HouseholdID, actorID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrMembershipNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if membership.Role != models.MemberRoleOwner {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

func (s *creditService) getCredit(creditID uint) (*models.Credit, error) {
	var credit models.Credit
	if err := s.db.First(&credit, creditID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCreditNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &credit, nil
}
