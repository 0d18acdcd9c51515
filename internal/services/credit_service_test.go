package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"homefund/internal/models"
	"homefund/internal/testutil"
)

// overpaidFixture builds a two-member proportional household where member A
// overpays March by 50.00, then closes the period so the overpayment turns
// into a credit.
func overpaidFixture(t *testing.T, db *gorm.DB, eng *testEngine) (*models.Household, *models.User, *models.User, *models.Credit) {
	t.Helper()
	memberA := testutil.CreateTestUser(t, db)
	memberB := testutil.CreateTestUser(t, db)
	household := testutil.CreateTestHousehold(t, db, memberA.ID, 100000, models.CalculationTypeProportional)
	testutil.AddTestMember(t, db, household.ID, memberB.ID)
	testutil.SetTestIncome(t, db, household.ID, memberA.ID, 300000)
	testutil.SetTestIncome(t, db, household.ID, memberB.ID, 100000)
	period := testutil.CreateTestPeriod(t, db, household, 2025, 3, models.PeriodPhaseActive)

	_, _, err := eng.transactions.Record(RecordMovementInput{
		HouseholdID: household.ID, PerformerID: memberA.ID,
		Type: models.TransactionTypeExpenseDirect, FlowType: models.FlowTypeDirect,
		Amount: 80000, Description: "Rent",
		OccurredAt: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, eng.periods.Close(household.ID, period.ID, memberA.ID, ""))

	credits, err := eng.credits.ListMemberCredits(household.ID, memberA.ID)
	testutil.AssertNoError(t, err)
	if len(credits) != 1 {
		t.Fatalf("expected 1 credit after closing, got %d", len(credits))
	}
	return household, memberA, memberB, &credits[0]
}

func TestDetectOverpayments(t *testing.T) {
	t.Run("credit_created_on_close", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		eng := newTestEngine(db)
		household, memberA, memberB, credit := overpaidFixture(t, db, eng)

		if credit.Amount != 5000 {
			t.Errorf("expected credit of 5000, got %d", credit.Amount)
		}
		if credit.Applied {
			t.Error("fresh credits must start unapplied")
		}

		// The underpaying member gets no credit.
		credits, err := eng.credits.ListMemberCredits(household.ID, memberB.ID)
		testutil.AssertNoError(t, err)
		if len(credits) != 0 {
			t.Errorf("expected no credit for member B, got %d", len(credits))
		}

		// Re-running detection must not duplicate.
		created, err := eng.credits.DetectOverpayments(nil, household.ID, credit.SourcePeriodID)
		testutil.AssertNoError(t, err)
		if len(created) != 0 {
			t.Errorf("expected no new credits on re-detection, got %d", len(created))
		}

		credits, err = eng.credits.ListMemberCredits(household.ID, memberA.ID)
		testutil.AssertNoError(t, err)
		if len(credits) != 1 {
			t.Errorf("expected still 1 credit, got %d", len(credits))
		}
	})
}

func TestApplyDecision(t *testing.T) {
	t.Run("apply_to_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		eng := newTestEngine(db)
		household, memberA, _, credit := overpaidFixture(t, db, eng)
		april := testutil.CreateTestPeriod(t, db, household, 2025, 4, models.PeriodPhaseActive)

		testutil.AssertNoError(t, eng.credits.ApplyDecision(credit.ID, memberA.ID, models.CreditDecisionApplyToMonth))

		var row models.Contribution
		testutil.AssertNoError(t, db.Where("period_id = ? AND user_id = ?", april.ID, memberA.ID).
			First(&row).Error)
		if row.PaidAmount != 5000 {
			t.Errorf("applied credit must count as paid, got %d", row.PaidAmount)
		}

		// A recompute must not wipe the applied credit.
		rows, err := eng.contributions.Recompute(nil, household.ID, april.ID)
		testutil.AssertNoError(t, err)
		if findContribution(t, rows, memberA.ID).PaidAmount != 5000 {
			t.Error("recompute dropped the applied credit")
		}

		// A credit is spent exactly once.
		err = eng.credits.ApplyDecision(credit.ID, memberA.ID, models.CreditDecisionApplyToMonth)
		testutil.AssertAppError(t, err, "CREDIT_ALREADY_APPLIED")
	})

	t.Run("apply_to_month_without_active_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		eng := newTestEngine(db)
		_, memberA, _, credit := overpaidFixture(t, db, eng)

		err := eng.credits.ApplyDecision(credit.ID, memberA.ID, models.CreditDecisionApplyToMonth)
		testutil.AssertAppError(t, err, "PRECONDITION_NOT_MET")
	})

	t.Run("keep_active", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		eng := newTestEngine(db)
		household, memberA, _, credit := overpaidFixture(t, db, eng)

		testutil.AssertNoError(t, eng.credits.ApplyDecision(credit.ID, memberA.ID, models.CreditDecisionKeepActive))

		credits, err := eng.credits.ListMemberCredits(household.ID, memberA.ID)
		testutil.AssertNoError(t, err)
		if credits[0].Applied {
			t.Error("keep_active must leave the credit spendable")
		}
		if credits[0].MonthlyDecision == nil || *credits[0].MonthlyDecision != models.CreditDecisionKeepActive {
			t.Error("keep_active decision not recorded")
		}

		// The credit can still be spent later.
		testutil.CreateTestPeriod(t, db, household, 2025, 4, models.PeriodPhaseActive)
		testutil.AssertNoError(t, eng.credits.ApplyDecision(credit.ID, memberA.ID, models.CreditDecisionApplyToMonth))
	})

	t.Run("transfer_to_savings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		eng := newTestEngine(db)
		household, memberA, _, credit := overpaidFixture(t, db, eng)

		testutil.AssertNoError(t, eng.credits.ApplyDecision(credit.ID, memberA.ID, models.CreditDecisionTransferToSavings))

		var reloaded models.Household
		testutil.AssertNoError(t, db.First(&reloaded, household.ID).Error)
		if reloaded.SavingsBalance != 5000 {
			t.Errorf("expected savings balance 5000, got %d", reloaded.SavingsBalance)
		}

		var movementCount int64
		db.Model(&models.Transaction{}).
			Where("household_id = ? AND description = ?", household.ID, "Credit transferred to savings").
			Count(&movementCount)
		if movementCount != 1 {
			t.Errorf("expected 1 savings transfer movement, got %d", movementCount)
		}

		err := eng.credits.ApplyDecision(credit.ID, memberA.ID, models.CreditDecisionTransferToSavings)
		testutil.AssertAppError(t, err, "CREDIT_ALREADY_APPLIED")
	})

	t.Run("authorization", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		eng := newTestEngine(db)
		_, _, memberB, credit := overpaidFixture(t, db, eng)
		stranger := testutil.CreateTestUser(t, db)

		err := eng.credits.ApplyDecision(credit.ID, stranger.ID, models.CreditDecisionKeepActive)
		testutil.AssertAppError(t, err, "MEMBERSHIP_NOT_FOUND")

		// A plain member cannot decide someone else's credit.
		err = eng.credits.ApplyDecision(credit.ID, memberB.ID, models.CreditDecisionKeepActive)
		testutil.AssertAppError(t, err, "PERMISSION_DENIED")
	})

	t.Run("unknown_credit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		eng := newTestEngine(db)
		owner := testutil.CreateTestUser(t, db)
		testutil.CreateTestHousehold(t, db, owner.ID, 100000, models.CalculationTypeProportional)

		err := eng.credits.ApplyDecision(999, owner.ID, models.CreditDecisionKeepActive)
		testutil.AssertAppError(t, err, "CREDIT_NOT_FOUND")
	})
}
