package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "homefund/internal/errors"
	"homefund/internal/logger"
	"homefund/internal/models"
)

// periodService implements the monthly-period lifecycle state machine:
// preparing → validation → active → closing → closed, one-directional except
// the owner-only reopen of a closed period.
type periodService struct {
	db            *gorm.DB
	contributions ContributionServicer
	credits       CreditServicer
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(db *gorm.DB, contributions ContributionServicer, credits CreditServicer) PeriodServicer {
	return &periodService{
		db:            db,
		contributions: contributions,
		credits:       credits,
	}
}

// PhaseAllows reports whether a movement of the given flow and type may be
// recorded while the period is in the given phase: preparing permits no
// movements, validation permits only direct expenses, active permits all,
// closing and closed permit none.
func PhaseAllows(phase models.PeriodPhase, flowType models.FlowType, txType models.TransactionType) bool {
	switch phase {
	case models.PeriodPhaseValidation:
		return flowType == models.FlowTypeDirect && txType == models.TransactionTypeExpenseDirect
	case models.PeriodPhaseActive:
		return true
	default:
		return false
	}
}

// CreatePeriod creates the period for (household, year, month), snapshotting
// the household's current budget and calculation type so later setting
// changes never alter it.
func (s *periodService) CreatePeriod(householdID, actorID uint, year, month int) (*models.MonthlyPeriod, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "month must be between 1 and 12")
	}
	if year < 2000 || year > 2200 {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "year is out of range")
	}
	if err := s.requireMember(householdID, actorID); err != nil {
		return nil, err
	}

	var household models.Household
	if err := s.db.First(&household, householdID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	s.db.Model(&models.MonthlyPeriod{}).
		Where("household_id = ? AND year = ? AND month = ?", householdID, year, month).
		Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicatePeriod
	}

	period := &models.MonthlyPeriod{
		HouseholdID:             householdID,
		Year:                    year,
		Month:                   month,
		Phase:                   models.PeriodPhasePreparing,
		SnapshotBudget:          household.MonthlyBudget,
		SnapshotCalculationType: household.CalculationType,
		ContributionEnabled:     true,
	}
	if err := s.db.Create(period).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return period, nil
}

// GetPeriod returns a period scoped to a household.
func (s *periodService) GetPeriod(householdID, periodID uint) (*models.MonthlyPeriod, error) {
	var period models.MonthlyPeriod
	if err := s.db.Where("id = ? AND household_id = ?", periodID, householdID).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// FindPeriod returns the period for (household, year, month).
func (s *periodService) FindPeriod(householdID uint, year, month int) (*models.MonthlyPeriod, error) {
	var period models.MonthlyPeriod
	if err := s.db.Where("household_id = ? AND year = ? AND month = ?", householdID, year, month).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// Lock moves preparing → validation. Precondition: the household has a
// configured monthly budget and every member has a recorded income.
func (s *periodService) Lock(householdID, periodID, actorID uint) error {
	if err := s.requireMember(householdID, actorID); err != nil {
		return err
	}

	period, err := s.GetPeriod(householdID, periodID)
	if err != nil {
		return err
	}
	if err := s.checkLockPreconditions(householdID, period); err != nil {
		return err
	}

	return s.transition(householdID, periodID,
		[]models.PeriodPhase{models.PeriodPhasePreparing},
		models.PeriodPhaseValidation, nil)
}

// Open moves validation → active.
func (s *periodService) Open(householdID, periodID, actorID uint) error {
	if err := s.requireMember(householdID, actorID); err != nil {
		return err
	}
	return s.transition(householdID, periodID,
		[]models.PeriodPhase{models.PeriodPhaseValidation},
		models.PeriodPhaseActive, nil)
}

// StartClosing moves active → closing.
func (s *periodService) StartClosing(householdID, periodID, actorID uint, reason string) error {
	if err := s.requireMember(householdID, actorID); err != nil {
		return err
	}
	return s.transition(householdID, periodID,
		[]models.PeriodPhase{models.PeriodPhaseActive},
		models.PeriodPhaseClosing,
		map[string]interface{}{"closing_reason": reason})
}

// Close moves closing → closed. The two-gate legacy view also closes
// directly from validation or active. Closing freezes contribution figures:
// the final recompute runs and overpayments turn into credits, atomically
// with the phase flip.
func (s *periodService) Close(householdID, periodID, actorID uint, notes string) error {
	if err := s.requireMember(householdID, actorID); err != nil {
		return err
	}

	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.transitionWithDB(tx, householdID, periodID,
			[]models.PeriodPhase{models.PeriodPhaseClosing, models.PeriodPhaseActive, models.PeriodPhaseValidation},
			models.PeriodPhaseClosed,
			map[string]interface{}{"closing_notes": notes, "closed_at": &now}); err != nil {
			return err
		}

		if _, err := s.contributions.Recompute(tx, householdID, periodID); err != nil {
			return err
		}
		if _, err := s.credits.DetectOverpayments(tx, householdID, periodID); err != nil {
			return err
		}
		return nil
	})
}

// Reopen moves closed → active. Owner-only escape hatch for correcting
// mistakes; always audit-logged by the handler and logged here.
func (s *periodService) Reopen(householdID, periodID, actorID uint) error {
	membership, err := s.membership(householdID, actorID)
	if err != nil {
		return err
	}
	if membership.Role != models.MemberRoleOwner {
		return apperrors.ErrPermissionDenied
	}

	err = s.transition(householdID, periodID,
		[]models.PeriodPhase{models.PeriodPhaseClosed},
		models.PeriodPhaseActive,
		map[string]interface{}{"closed_at": nil, "closing_notes": "", "closing_reason": ""})
	if err != nil {
		return err
	}

	logger.Get().Warnw("period reopened",
		"household_id", householdID,
		"period_id", periodID,
		"user_id", actorID,
	)
	return nil
}

// transition performs a conditional phase update outside any caller
// transaction.
func (s *periodService) transition(householdID, periodID uint, expected []models.PeriodPhase, to models.PeriodPhase, extra map[string]interface{}) error {
	return s.transitionWithDB(s.db, householdID, periodID, expected, to, extra)
}

// transitionWithDB is the concurrency safeguard for phase changes: a single
// conditional UPDATE guarded by the expected current phase. When two
// transitions race, exactly one succeeds; the other observes zero affected
// rows and surfaces STALE_TRANSITION with the phase it found instead.
func (s *periodService) transitionWithDB(tx *gorm.DB, householdID, periodID uint, expected []models.PeriodPhase, to models.PeriodPhase, extra map[string]interface{}) error {
	updates := map[string]interface{}{"phase": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&models.MonthlyPeriod{}).
		Where("id = ? AND household_id = ? AND phase IN ?", periodID, householdID, expected).
		Updates(updates)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		var period models.MonthlyPeriod
		if err := tx.Where("id = ? AND household_id = ?", periodID, householdID).
			First(&period).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPeriodNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return apperrors.WithMessage(apperrors.ErrStaleTransition,
			fmt.Sprintf("period is in phase %q, expected one of %v", period.Phase, expected))
	}
	return nil
}

// checkLockPreconditions verifies the household has a monthly budget and
// every member has a recorded income effective by the period's end.
func (s *periodService) checkLockPreconditions(householdID uint, period *models.MonthlyPeriod) error {
	var household models.Household
	if err := s.db.First(&household, householdID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if household.MonthlyBudget <= 0 {
		return apperrors.WithMessage(apperrors.ErrPreconditionNotMet, "household has no monthly budget configured")
	}

	var members []models.HouseholdMember
	if err := s.db.Where("household_id = ?", householdID).Find(&members).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, m := range members {
		var count int64
		s.db.Model(&models.MemberIncome{}).
			Where("household_id = ? AND user_id = ? AND effective_from < ?", householdID, m.UserID, period.End()).
			Count(&count)
		if count == 0 {
			return apperrors.WithMessage(apperrors.ErrPreconditionNotMet,
				fmt.Sprintf("member %d has no recorded income", m.UserID))
		}
	}
	return nil
}

func (s *periodService) membership(householdID, userID uint) (*models.HouseholdMember, error) {
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

func (s *periodService) requireMember(householdID, userID uint) error {
	_, err := s.membership(householdID, userID)
	return err
}
