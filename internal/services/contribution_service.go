package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
)

// contributionService implements the contribution calculator. It is a pure
// aggregation over the ledger: it reads the period snapshot, member incomes,
// direct expenses, common-fund income payments, adjustments, and applied
// credits, and refreshes the cached contribution rows. Recompute never
// mutates the ledger and can be re-run at any time without double-counting.
type contributionService struct {
	db *gorm.DB
}

// NewContributionService creates a new ContributionServicer.
func NewContributionService(db *gorm.DB) ContributionServicer {
	return &contributionService{db: db}
}

// Recompute refreshes the cached contribution rows for a period.
func (s *contributionService) Recompute(tx *gorm.DB, householdID, periodID uint) ([]models.Contribution, error) {
	if tx == nil {
		tx = s.db
	}

	var period models.MonthlyPeriod
	if err := tx.Where("id = ? AND household_id = ?", periodID, householdID).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var members []models.HouseholdMember
	if err := tx.Where("household_id = ?", householdID).
		Order("user_id").Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Legacy periods that predate proportional contributions zero out every
	// balance instead of running the calculation.
	if !period.ContributionEnabled {
		return s.storeZeroContributions(tx, &period, members)
	}

	incomes := make(map[uint]int64, len(members))
	for _, m := range members {
		income, err := effectiveIncomeWithDB(tx, householdID, m.UserID, period.End())
		if err != nil {
			return nil, err
		}
		incomes[m.UserID] = income
	}

	bases := baseShares(period.SnapshotBudget, period.SnapshotCalculationType, members, incomes)

	contributions := make([]models.Contribution, 0, len(members))
	for _, m := range members {
		adjustments, err := s.sumAdjustments(tx, &period, m.UserID)
		if err != nil {
			return nil, err
		}

		var paid int64
		// Direct-flow activity only counts once the period leaves preparing.
		if period.Phase != models.PeriodPhasePreparing {
			paid, err = s.paidAmount(tx, &period, m.UserID)
			if err != nil {
				return nil, err
			}
		}

		base := bases[m.UserID]
		expected := base + adjustments
		row := models.Contribution{
			HouseholdID:       householdID,
			PeriodID:          period.ID,
			UserID:            m.UserID,
			BaseExpected:      base,
			ExpectedAmount:    expected,
			PaidAmount:        paid,
			PendingAmount:     maxInt64(0, expected-paid),
			OverpaidAmount:    maxInt64(0, paid-expected),
			CalculationMethod: period.SnapshotCalculationType,
		}
		row.Status = contributionStatus(row.ExpectedAmount, row.PaidAmount)

		if err := s.upsertContribution(tx, &row); err != nil {
			return nil, err
		}
		contributions = append(contributions, row)
	}
	return contributions, nil
}

// GetContributions recomputes and returns the contribution report for the
// period identified by (year, month).
func (s *contributionService) GetContributions(householdID, userID uint, year, month int) (*ContributionReport, error) {
	var memberCount int64
	s.db.Model(&models.HouseholdMember{}).
		Where("household_id = ? AND user_id = ?", householdID, userID).
		Count(&memberCount)
	if memberCount == 0 {
		return nil, apperrors.ErrMembershipNotFound
	}

	var period models.MonthlyPeriod
	if err := s.db.Where("household_id = ? AND year = ? AND month = ?", householdID, year, month).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if _, err := s.Recompute(s.db, householdID, period.ID); err != nil {
		return nil, err
	}

	var rows []models.Contribution
	if err := s.db.Preload("User").
		Where("household_id = ? AND period_id = ?", householdID, period.ID).
		Order("user_id").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &ContributionReport{Period: period, Members: rows}, nil
}

// AddAdjustment records a manual delta to a member's expected amount.
// Owner-only; the reason is mandatory. The affected period is recomputed.
func (s *contributionService) AddAdjustment(
	householdID, actorID, userID, periodID uint,
	amount int64,
	kind models.AdjustmentKind,
	reason string,
) (*models.Adjustment, error) {
	if reason == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "an adjustment always carries a reason")
	}
	if amount == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "adjustment amount cannot be zero")
	}

	var actor models.HouseholdMember
	if err := s.db.Where("household_id = ? AND user_id = ?", householdID, actorID).
		First(&actor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if actor.Role != models.MemberRoleOwner {
		return nil, apperrors.ErrPermissionDenied
	}

	var period models.MonthlyPeriod
	if err := s.db.Where("id = ? AND household_id = ?", periodID, householdID).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if period.Phase == models.PeriodPhaseClosing || period.Phase == models.PeriodPhaseClosed {
		return nil, apperrors.WithMessage(apperrors.ErrPhaseViolation,
			fmt.Sprintf("adjustments are not permitted on a %s period", period.Phase))
	}

	var targetCount int64
	s.db.Model(&models.HouseholdMember{}).
		Where("household_id = ? AND user_id = ?", householdID, userID).
		Count(&targetCount)
	if targetCount == 0 {
		return nil, apperrors.ErrMembershipNotFound
	}

	adjustment := &models.Adjustment{
		HouseholdID: householdID,
		PeriodID:    periodID,
		UserID:      userID,
		Amount:      amount,
		Kind:        kind,
		Reason:      reason,
		CreatedByID: actorID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(adjustment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err := s.Recompute(tx, householdID, periodID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return adjustment, nil
}

// paidAmount aggregates what a member put in for the period: the direct
// expenses they covered, their payments into the common fund, and credits
// applied to this period. Period attachment falls back to the occurrence
// date for historical rows without an explicit period id. Payments through
// the reserved loan-repayment and savings categories settle other balances
// and are not contributions.
func (s *contributionService) paidAmount(tx *gorm.DB, period *models.MonthlyPeriod, userID uint) (int64, error) {
	inPeriod := "(period_id = ? OR (period_id IS NULL AND occurred_at >= ? AND occurred_at < ?))"

	var directExpenses int64
	err := tx.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("household_id = ? AND performed_by_id = ? AND type = ?",
			period.HouseholdID, userID, models.TransactionTypeExpenseDirect).
		Where(inPeriod, period.ID, period.Start(), period.End()).
		Scan(&directExpenses).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	reserved := tx.Model(&models.Category{}).
		Select("id").
		Where("household_id = ? AND slug IN ?", period.HouseholdID,
			[]string{models.CategorySlugLoanRepayment, models.CategorySlugSavings})

	var commonPayments int64
	err = tx.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("household_id = ? AND performed_by_id = ? AND type = ? AND flow_type = ?",
			period.HouseholdID, userID, models.TransactionTypeIncome, models.FlowTypeCommon).
		Where("requires_approval = ? OR approved = ?", false, true).
		Where("category_id IS NULL OR category_id NOT IN (?)", reserved).
		Where(inPeriod, period.ID, period.Start(), period.End()).
		Scan(&commonPayments).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var appliedCredits int64
	err = tx.Model(&models.Credit{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("household_id = ? AND user_id = ? AND applied = ? AND applied_period_id = ? AND monthly_decision = ?",
			period.HouseholdID, userID, true, period.ID, models.CreditDecisionApplyToMonth).
		Scan(&appliedCredits).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return directExpenses + commonPayments + appliedCredits, nil
}

func (s *contributionService) sumAdjustments(tx *gorm.DB, period *models.MonthlyPeriod, userID uint) (int64, error) {
	var total int64
	err := tx.Model(&models.Adjustment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("household_id = ? AND period_id = ? AND user_id = ?", period.HouseholdID, period.ID, userID).
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

func (s *contributionService) storeZeroContributions(tx *gorm.DB, period *models.MonthlyPeriod, members []models.HouseholdMember) ([]models.Contribution, error) {
	contributions := make([]models.Contribution, 0, len(members))
	for _, m := range members {
		row := models.Contribution{
			HouseholdID:       period.HouseholdID,
			PeriodID:          period.ID,
			UserID:            m.UserID,
			Status:            models.ContributionStatusPaid,
			CalculationMethod: period.SnapshotCalculationType,
		}
		if err := s.upsertContribution(tx, &row); err != nil {
			return nil, err
		}
		contributions = append(contributions, row)
	}
	return contributions, nil
}

// upsertContribution refreshes the cached row for (period, member).
func (s *contributionService) upsertContribution(tx *gorm.DB, row *models.Contribution) error {
	var existing models.Contribution
	err := tx.Where("period_id = ? AND user_id = ?", row.PeriodID, row.UserID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(row).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{
		"base_expected":      row.BaseExpected,
		"expected_amount":    row.ExpectedAmount,
		"paid_amount":        row.PaidAmount,
		"pending_amount":     row.PendingAmount,
		"overpaid_amount":    row.OverpaidAmount,
		"status":             row.Status,
		"calculation_method": row.CalculationMethod,
	}
	if err := tx.Model(&existing).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	row.ID = existing.ID
	return nil
}

// baseShares splits the snapshot budget across members in whole cents.
// Proportional weighting uses each member's income over the household total;
// remainders go to the largest fractional parts so the shares always sum to
// the budget exactly.
func baseShares(budget int64, calc models.CalculationType, members []models.HouseholdMember, incomes map[uint]int64) map[uint]int64 {
	shares := make(map[uint]int64, len(members))
	if budget <= 0 || len(members) == 0 {
		for _, m := range members {
			shares[m.UserID] = 0
		}
		return shares
	}

	if calc == models.CalculationTypeEqual {
		per := budget / int64(len(members))
		rem := budget % int64(len(members))
		for i, m := range members {
			shares[m.UserID] = per
			if int64(i) < rem {
				shares[m.UserID]++
			}
		}
		return shares
	}

	var totalIncome int64
	for _, m := range members {
		if incomes[m.UserID] > 0 {
			totalIncome += incomes[m.UserID]
		}
	}
	if totalIncome == 0 {
		for _, m := range members {
			shares[m.UserID] = 0
		}
		return shares
	}

	type remainderEntry struct {
		userID    uint
		remainder int64
	}
	var assigned int64
	remainders := make([]remainderEntry, 0, len(members))
	for _, m := range members {
		income := incomes[m.UserID]
		if income <= 0 {
			shares[m.UserID] = 0
			continue
		}
		quota := budget * income / totalIncome
		shares[m.UserID] = quota
		assigned += quota
		remainders = append(remainders, remainderEntry{m.UserID, (budget * income) % totalIncome})
	}

	sort.Slice(remainders, func(i, j int) bool {
		if remainders[i].remainder != remainders[j].remainder {
			return remainders[i].remainder > remainders[j].remainder
		}
		return remainders[i].userID < remainders[j].userID
	})
	for i := int64(0); i < budget-assigned && int(i) < len(remainders); i++ {
		shares[remainders[i].userID]++
	}
	return shares
}

func contributionStatus(expected, paid int64) models.ContributionStatus {
	switch {
	case paid > expected:
		return models.ContributionStatusOverpaid
	case paid == expected:
		return models.ContributionStatusPaid
	case paid > 0:
		return models.ContributionStatusPartial
	default:
		return models.ContributionStatusPending
	}
}

// effectiveIncomeWithDB is the latest-effective-date-wins income lookup used
// inside calculator transactions.
func effectiveIncomeWithDB(tx *gorm.DB, householdID, userID uint, at time.Time) (int64, error) {
	var income models.MemberIncome
	err := tx.Where("household_id = ? AND user_id = ? AND effective_from <= ?", householdID, userID, at).
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

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
