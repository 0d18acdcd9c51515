package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
	"homefund/internal/services"
)

// CreditHandler handles credit requests.
type CreditHandler struct {
	creditService services.CreditServicer
	auditService  services.AuditServicer
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(creditService services.CreditServicer, auditService services.AuditServicer) *CreditHandler {
	return &CreditHandler{creditService: creditService, auditService: auditService}
}

// ApplyCreditRequest represents the request payload for deciding a credit.
type ApplyCreditRequest struct {
	Decision models.CreditDecision `json:"decision" binding:"required,credit_decision"`
}

// GetCredits handles listing the authenticated member's credits.
// @Summary     Get credits
// @Description List the authenticated member's credits in the household
// @Tags        credits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Household ID"
// @Success     200 {array} models.Credit "Credits"
// @Failure     400 {object} ErrorResponse "Invalid household ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/credits [get]
func (h *CreditHandler) GetCredits(c *gin.Context) {
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

	credits, err := h.creditService.ListMemberCredits(householdID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credits": credits})
}

// ApplyCredit handles deciding a credit's disposition.
// @Summary     Apply credit decision
// @Description Decide a credit: apply to the active month, keep it active, or transfer it to savings
// @Tags        credits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path int                true "Household ID"
// @Param       creditID path int                true "Credit ID"
// @Param       request  body ApplyCreditRequest true "Decision"
// @Success     200 {object} MessageResponse "Decision applied"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not permitted"
// @Failure     404 {object} ErrorResponse "Credit not found"
// @Failure     409 {object} ErrorResponse "Credit already applied"
// @Failure     412 {object} ErrorResponse "No active period"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/credits/{creditID}/apply [post]
func (h *CreditHandler) ApplyCredit(c *gin.Context) {
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
	creditID, err := parsePathID(c, "creditID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ApplyCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	if err := h.creditService.ApplyDecision(creditID, userID, req.Decision); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "APPLY_CREDIT", "credit", creditID, c.ClientIP(),
		map[string]interface{}{"decision": req.Decision})

	c.JSON(http.StatusOK, gin.H{"message": "Credit decision applied"})
}
