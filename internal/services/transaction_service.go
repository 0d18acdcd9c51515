package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "homefund/internal/errors"
	"homefund/internal/logger"
	"homefund/internal/models"
	"homefund/internal/pagination"
	"homefund/internal/uuid"
)

// transactionService implements the transaction ledger, including the
// compensatory pairing of direct-flow movements: every direct expense is
// persisted together with a direct income of equal amount sharing a pair
// identifier, and the two halves are created, edited, and deleted as one
// atomic unit.
type transactionService struct {
	db      *gorm.DB
	periods PeriodServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, periods PeriodServicer) TransactionServicer {
	return &transactionService{db: db, periods: periods}
}

// Record validates and persists a movement. Direct-flow movements get their
// compensatory counter-entry in the same database transaction; both halves
// exist or neither does.
func (s *transactionService) Record(input RecordMovementInput) (*models.Transaction, *models.Transaction, error) {
	if input.Amount <= 0 {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "amount must be greater than zero")
	}
	if err := validateTypeFlow(input.Type, input.FlowType); err != nil {
		return nil, nil, err
	}
	if input.FlowType == models.FlowTypeCommon && input.CategoryID == nil {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "common-flow movements require a category")
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = time.Now()
	}

	// The performer must be a member of the household.
	var memberCount int64
	s.db.Model(&models.HouseholdMember{}).
		Where("household_id = ? AND user_id = ?", input.HouseholdID, input.PerformerID).
		Count(&memberCount)
	if memberCount == 0 {
		return nil, nil, apperrors.ErrMembershipNotFound
	}

	if input.CategoryID != nil {
		var count int64
		s.db.Model(&models.Category{}).
			Where("id = ? AND household_id = ?", *input.CategoryID, input.HouseholdID).
			Count(&count)
		if count == 0 {
			return nil, nil, apperrors.ErrCategoryNotFound
		}
	}

	periodID, err := s.resolvePeriod(input)
	if err != nil {
		return nil, nil, err
	}

	movement := &models.Transaction{
		HouseholdID:      input.HouseholdID,
		PeriodID:         periodID,
		CategoryID:       input.CategoryID,
		Type:             input.Type,
		FlowType:         input.FlowType,
		Amount:           input.Amount,
		Description:      input.Description,
		OccurredAt:       input.OccurredAt,
		PerformedByID:    input.PerformerID,
		RequiresApproval: input.RequiresApproval,
	}

	var pair *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if movement.IsDirect() {
			pairID := uuid.New()
			movement.TransactionPairID = &pairID
		}
		if err := tx.Create(movement).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if movement.IsDirect() {
			pair = &models.Transaction{
				HouseholdID:       movement.HouseholdID,
				PeriodID:          movement.PeriodID,
				CategoryID:        movement.CategoryID,
				Type:              movement.CompensatoryType(),
				FlowType:          models.FlowTypeDirect,
				Amount:            movement.Amount,
				Description:       compensatoryDescription(movement.Description),
				OccurredAt:        movement.OccurredAt,
				PerformedByID:     movement.PerformedByID,
				TransactionPairID: movement.TransactionPairID,
			}
			if err := tx.Create(pair).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return movement, pair, nil
}

// Edit applies a patch to a movement. For a paired movement the amount,
// date, and category changes apply to both halves symmetrically; the
// compensatory half's description is re-derived rather than patched.
func (s *transactionService) Edit(householdID, transactionID uint, patch MovementPatch) (*models.Transaction, error) {
	if patch.Amount != nil && *patch.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "amount must be greater than zero")
	}

	movement, err := s.GetByID(householdID, transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureMutable(movement); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil {
		var count int64
		s.db.Model(&models.Category{}).
			Where("id = ? AND household_id = ?", *patch.CategoryID, householdID).
			Count(&count)
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
	}

	updates := make(map[string]interface{})
	if patch.Amount != nil {
		updates["amount"] = *patch.Amount
	}
	if patch.OccurredAt != nil {
		updates["occurred_at"] = *patch.OccurredAt
	}
	if patch.CategoryID != nil {
		updates["category_id"] = *patch.CategoryID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		own := updates
		if patch.Description != nil {
			own = make(map[string]interface{}, len(updates)+1)
			for k, v := range updates {
				own[k] = v
			}
			own["description"] = *patch.Description
		}
		if len(own) > 0 {
			if err := tx.Model(movement).Updates(own).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if movement.TransactionPairID == nil {
			return nil
		}

		other, err := s.pairHalf(tx, movement)
		if err != nil {
			return err
		}
		if other == nil {
			// Should not occur under correct pairing; proceed on the single
			// row and surface the inconsistency in the logs.
			logger.Get().Errorw("pair half missing on edit",
				"transaction_id", movement.ID,
				"pair_id", *movement.TransactionPairID,
			)
			return nil
		}

		pairUpdates := make(map[string]interface{}, len(updates)+1)
		for k, v := range updates {
			pairUpdates[k] = v
		}
		if patch.Description != nil {
			pairUpdates["description"] = compensatoryDescription(*patch.Description)
		}
		if len(pairUpdates) > 0 {
			if err := tx.Model(other).Updates(pairUpdates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(householdID, transactionID)
}

// Delete removes a movement. For a paired movement both halves are deleted
// in one atomic operation; a lone half is a pairing defect that is deleted
// anyway and logged.
func (s *transactionService) Delete(householdID, transactionID uint) error {
	movement, err := s.GetByID(householdID, transactionID)
	if err != nil {
		return err
	}
	if err := s.ensureMutable(movement); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if movement.TransactionPairID != nil {
			res := tx.Where("household_id = ? AND transaction_pair_id = ?",
				householdID, *movement.TransactionPairID).
				Delete(&models.Transaction{})
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			if res.RowsAffected < 2 {
				logger.Get().Errorw("pair half missing on delete",
					"transaction_id", movement.ID,
					"pair_id", *movement.TransactionPairID,
					"rows_deleted", res.RowsAffected,
				)
			}
			return nil
		}

		if err := tx.Delete(movement).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetByID retrieves a movement scoped to a household.
func (s *transactionService) GetByID(householdID, transactionID uint) (*models.Transaction, error) {
	var movement models.Transaction
	if err := s.db.Where("id = ? AND household_id = ?", transactionID, householdID).
		First(&movement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &movement, nil
}

// ListTransactions retrieves a paginated, filtered list of the household's
// movements.
func (s *transactionService) ListTransactions(householdID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("household_id = ?", householdID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("occurred_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("occurred_at >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("occurred_at <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.FlowType != nil {
		q = q.Where("flow_type = ?", *f.FlowType)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.PerformerID != nil {
		q = q.Where("performed_by_id = ?", *f.PerformerID)
	}
	if f.PeriodID != nil {
		q = q.Where("period_id = ?", *f.PeriodID)
	}
	return q
}

// resolvePeriod attaches the movement to its period and enforces movement
// legality for the period's phase. An explicit period id wins; otherwise the
// period matching the occurrence date is used. Historical movements predate
// explicit period rows, so a missing period leaves the attachment to the
// date-range fallback at aggregation time.
func (s *transactionService) resolvePeriod(input RecordMovementInput) (*uint, error) {
	var period *models.MonthlyPeriod
	var err error

	if input.PeriodID != nil {
		period, err = s.periods.GetPeriod(input.HouseholdID, *input.PeriodID)
		if err != nil {
			return nil, err
		}
	} else {
		period, err = s.periods.FindPeriod(input.HouseholdID, input.OccurredAt.Year(), int(input.OccurredAt.Month()))
		if err != nil {
			if isNotFoundCode(err) {
				return nil, nil
			}
			return nil, err
		}
	}

	if !PhaseAllows(period.Phase, input.FlowType, input.Type) {
		return nil, apperrors.WithMessage(apperrors.ErrPhaseViolation,
			fmt.Sprintf("%s %s movements are not permitted while the period is %s", input.FlowType, input.Type, period.Phase))
	}
	id := period.ID
	return &id, nil
}

// ensureMutable rejects edits and deletes on movements attached to closing
// or closed periods.
func (s *transactionService) ensureMutable(movement *models.Transaction) error {
	if movement.PeriodID == nil {
		return nil
	}
	period, err := s.periods.GetPeriod(movement.HouseholdID, *movement.PeriodID)
	if err != nil {
		return err
	}
	if period.Phase == models.PeriodPhaseClosing || period.Phase == models.PeriodPhaseClosed {
		return apperrors.WithMessage(apperrors.ErrPhaseViolation,
			fmt.Sprintf("movements of a %s period cannot be modified", period.Phase))
	}
	return nil
}

// pairHalf returns the other half of a paired movement, or nil when the
// pair is incomplete.
func (s *transactionService) pairHalf(tx *gorm.DB, movement *models.Transaction) (*models.Transaction, error) {
	var other models.Transaction
	err := tx.Where("household_id = ? AND transaction_pair_id = ? AND id <> ?",
		movement.HouseholdID, *movement.TransactionPairID, movement.ID).
		First(&other).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &other, nil
}

func validateTypeFlow(txType models.TransactionType, flowType models.FlowType) error {
	switch txType {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
		if flowType != models.FlowTypeCommon {
			return apperrors.WithMessage(apperrors.ErrValidationFailed,
				fmt.Sprintf("%s movements must use the common flow", txType))
		}
	case models.TransactionTypeIncomeDirect, models.TransactionTypeExpenseDirect:
		if flowType != models.FlowTypeDirect {
			return apperrors.WithMessage(apperrors.ErrValidationFailed,
				fmt.Sprintf("%s movements must use the direct flow", txType))
		}
	default:
		return apperrors.WithMessage(apperrors.ErrValidationFailed, "unsupported transaction type")
	}
	return nil
}

func compensatoryDescription(desc string) string {
	if desc == "" {
		return "Compensation"
	}
	return "Compensation: " + desc
}

// isNotFoundCode reports whether err is the period NOT_FOUND sentinel.
func isNotFoundCode(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Code == apperrors.ErrPeriodNotFound.Code
}
