package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
	"homefund/internal/services"
)

type mockLoanService struct {
	requestLoanFn     func(householdID, requesterID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, error)
	approveLoanFn     func(householdID, loanID, actorID uint) error
	repayLoanFn       func(householdID, payerID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, string, error)
	memberDebtFn      func(householdID, userID uint) (int64, error)
	pairwiseBalanceFn func(householdID, userA, userB uint) (int64, error)
}

func (m *mockLoanService) RequestLoan(householdID, requesterID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, error) {
	if m.requestLoanFn != nil {
		return m.requestLoanFn(householdID, requesterID, amount, description, occurredAt)
	}
	return &models.Transaction{}, nil
}

func (m *mockLoanService) ApproveLoan(householdID, loanID, actorID uint) error {
	if m.approveLoanFn != nil {
		return m.approveLoanFn(householdID, loanID, actorID)
	}
	return nil
}

func (m *mockLoanService) RepayLoan(householdID, payerID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, string, error) {
	if m.repayLoanFn != nil {
		return m.repayLoanFn(householdID, payerID, amount, description, occurredAt)
	}
	return &models.Transaction{}, "", nil
}

func (m *mockLoanService) MemberDebt(householdID, userID uint) (int64, error) {
	if m.memberDebtFn != nil {
		return m.memberDebtFn(householdID, userID)
	}
	return 0, nil
}

func (m *mockLoanService) PairwiseBalance(householdID, userA, userB uint) (int64, error) {
	if m.pairwiseBalanceFn != nil {
		return m.pairwiseBalanceFn(householdID, userA, userB)
	}
	return 0, nil
}

var _ services.LoanServicer = (*mockLoanService)(nil)

func setupLoanRouter(handler *LoanHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/households/:id/loans", handler.RequestLoan)
	auth.POST("/households/:id/loans/:loanID/approve", handler.ApproveLoan)
	auth.POST("/households/:id/loans/repay", handler.RepayLoan)
	auth.GET("/households/:id/loans/debt", handler.GetDebt)
	auth.GET("/households/:id/loans/balance", handler.GetBalance)
	return r
}

func TestLoanHandler_RequestLoan(t *testing.T) {
	t.Run("returns 201 with the pending loan", func(t *testing.T) {
		loanSvc := &mockLoanService{
			requestLoanFn: func(householdID, requesterID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, error) {
				return &models.Transaction{
					Base:             models.Base{ID: 20},
					HouseholdID:      householdID,
					Amount:           amount,
					RequiresApproval: true,
				}, nil
			},
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/households/5/loans", `{"amount":30000,"description":"Car repair"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		loan := result["loan"].(map[string]interface{})
		if loan["requires_approval"] != true {
			t.Error("expected the loan to require approval")
		}
		if loan["approved"] != false {
			t.Error("expected the loan to start unapproved")
		}
	})

	t.Run("returns 400 on non-positive amount", func(t *testing.T) {
		handler := NewLoanHandler(&mockLoanService{}, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/households/5/loans", `{"amount":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLoanHandler_ApproveLoan(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		called := false
		loanSvc := &mockLoanService{
			approveLoanFn: func(householdID, loanID, actorID uint) error {
				called = true
				if loanID != 20 || actorID != 1 {
					t.Errorf("unexpected ids loan=%d actor=%d", loanID, actorID)
				}
				return nil
			},
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/households/5/loans/20/approve", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !called {
			t.Error("expected ApproveLoan to be called")
		}
	})

	t.Run("returns 403 for non-owner", func(t *testing.T) {
		loanSvc := &mockLoanService{
			approveLoanFn: func(_, _, _ uint) error {
				return apperrors.WithMessage(apperrors.ErrPermissionDenied, "only the household owner can approve loans")
			},
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/households/5/loans/20/approve", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when already approved", func(t *testing.T) {
		loanSvc := &mockLoanService{
			approveLoanFn: func(_, _, _ uint) error { return apperrors.ErrLoanAlreadyApproved },
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/households/5/loans/20/approve", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "LOAN_ALREADY_APPROVED")
	})
}

func TestLoanHandler_RepayLoan(t *testing.T) {
	t.Run("returns 201 without a warning", func(t *testing.T) {
		loanSvc := &mockLoanService{
			repayLoanFn: func(householdID, payerID uint, amount int64, description string, occurredAt time.Time) (*models.Transaction, string, error) {
				return &models.Transaction{Base: models.Base{ID: 21}, Amount: amount}, "", nil
			},
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/households/5/loans/repay", `{"amount":10000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if _, hasWarning := result["warning"]; hasWarning {
			t.Error("expected no warning for a partial repayment")
		}
	})

	t.Run("returns the over-repayment warning", func(t *testing.T) {
		loanSvc := &mockLoanService{
			repayLoanFn: func(_, _ uint, amount int64, _ string, _ time.Time) (*models.Transaction, string, error) {
				return &models.Transaction{Base: models.Base{ID: 21}, Amount: amount},
					"repayment exceeds the outstanding debt", nil
			},
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/households/5/loans/repay", `{"amount":50000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["warning"] == nil {
			t.Error("expected an over-repayment warning")
		}
	})
}

func TestLoanHandler_GetDebt(t *testing.T) {
	t.Run("defaults to the caller", func(t *testing.T) {
		loanSvc := &mockLoanService{
			memberDebtFn: func(_, userID uint) (int64, error) {
				if userID != 1 {
					t.Errorf("expected caller's debt, got user %d", userID)
				}
				return 30000, nil
			},
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "GET", "/households/5/loans/debt", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["debt"] != float64(30000) {
			t.Errorf("unexpected debt %v", result["debt"])
		}
	})

	t.Run("inspects another member via user_id", func(t *testing.T) {
		loanSvc := &mockLoanService{
			memberDebtFn: func(_, userID uint) (int64, error) {
				if userID != 2 {
					t.Errorf("expected user 2, got %d", userID)
				}
				return 0, nil
			},
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "GET", "/households/5/loans/debt?user_id=2", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestLoanHandler_GetBalance(t *testing.T) {
	t.Run("returns the signed balance", func(t *testing.T) {
		loanSvc := &mockLoanService{
			pairwiseBalanceFn: func(_, userA, userB uint) (int64, error) {
				if userA != 1 || userB != 2 {
					t.Errorf("unexpected pair %d/%d", userA, userB)
				}
				return 20000, nil
			},
		}
		handler := NewLoanHandler(loanSvc, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "GET", "/households/5/loans/balance?with=2", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["balance"] != float64(20000) {
			t.Errorf("unexpected balance %v", result["balance"])
		}
	})

	t.Run("returns 400 without the with parameter", func(t *testing.T) {
		handler := NewLoanHandler(&mockLoanService{}, &mockAuditService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "GET", "/households/5/loans/balance", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
