package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "homefund/internal/errors"
	"homefund/internal/services"
)

// LoanHandler handles household-internal loan requests.
type LoanHandler struct {
	loanService  services.LoanServicer
	auditService services.AuditServicer
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService services.LoanServicer, auditService services.AuditServicer) *LoanHandler {
	return &LoanHandler{loanService: loanService, auditService: auditService}
}

// RequestLoanRequest represents the request payload for proposing a loan.
type RequestLoanRequest struct {
	Amount      int64     `json:"amount" binding:"required,gt=0"`
	Description string    `json:"description" binding:"max=500"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RepayLoanRequest represents the request payload for a loan repayment.
type RepayLoanRequest struct {
	Amount      int64     `json:"amount" binding:"required,gt=0"`
	Description string    `json:"description" binding:"max=500"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DebtResponse represents a member's derived loan debt.
type DebtResponse struct {
	UserID uint  `json:"user_id"`
	Debt   int64 `json:"debt"`
}

// RequestLoan handles proposing a loan.
// @Summary     Request a loan
// @Description Propose a loan from the household fund; it affects balances only once approved
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "Household ID"
// @Param       request body RequestLoanRequest true "Loan details"
// @Success     201 {object} models.Transaction "Loan requested"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Movement not permitted in the period's phase"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/loans [post]
func (h *LoanHandler) RequestLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RequestLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	loan, err := h.loanService.RequestLoan(householdID, userID, req.Amount, req.Description, req.OccurredAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "REQUEST_LOAN", "transaction", loan.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// ApproveLoan handles approving a pending loan.
// @Summary     Approve a loan
// @Description Approve a pending loan (owner only); approval is a one-shot operation
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id     path int true "Household ID"
// @Param       loanID path int true "Loan ID"
// @Success     200 {object} MessageResponse "Loan approved"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the household owner"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     409 {object} ErrorResponse "Loan already approved"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/loans/{loanID}/approve [post]
func (h *LoanHandler) ApproveLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	loanID, err := parsePathID(c, "loanID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.loanService.ApproveLoan(householdID, loanID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "APPROVE_LOAN", "transaction", loanID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Loan approved"})
}

// RepayLoan handles recording a loan repayment.
// @Summary     Repay a loan
// @Description Record a repayment into the household fund; over-repaying is permitted with a warning
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int              true "Household ID"
// @Param       request body RepayLoanRequest true "Repayment details"
// @Success     201 {object} models.Transaction "Repayment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Movement not permitted in the period's phase"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/loans/repay [post]
func (h *LoanHandler) RepayLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RepayLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	repayment, warning, err := h.loanService.RepayLoan(householdID, userID, req.Amount, req.Description, req.OccurredAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "REPAY_LOAN", "transaction", repayment.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	resp := gin.H{"repayment": repayment}
	if warning != "" {
		resp["warning"] = warning
	}
	c.JSON(http.StatusCreated, resp)
}

// GetDebt handles retrieving the authenticated member's outstanding debt.
// @Summary     Get loan debt
// @Description Get the member's outstanding loan debt, derived from the ledger
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path  int true  "Household ID"
// @Param       user_id query int false "Member to inspect (defaults to the caller)"
// @Success     200 {object} DebtResponse "Outstanding debt"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/loans/debt [get]
func (h *LoanHandler) GetDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	target := userID
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, "Invalid user_id"))
			return
		}
		target = uint(id)
	}

	debt, err := h.loanService.MemberDebt(householdID, target)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": target, "debt": debt})
}

// GetBalance handles retrieving the signed balance between two members.
// @Summary     Get pairwise balance
// @Description Get who stands ahead between two members across settled periods
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  int true "Household ID"
// @Param       with   query int true "The other member's user ID"
// @Success     200 {object} DebtResponse "Signed balance"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/loans/balance [get]
func (h *LoanHandler) GetBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	other, err := strconv.ParseUint(c.Query("with"), 10, 32)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, "the 'with' query parameter is required"))
		return
	}

	balance, err := h.loanService.PairwiseBalance(householdID, userID, uint(other))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "with": uint(other), "balance": balance})
}
