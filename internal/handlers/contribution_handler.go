package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
	"homefund/internal/services"
)

// ContributionHandler handles contribution report and adjustment requests.
type ContributionHandler struct {
	contributionService services.ContributionServicer
	auditService        services.AuditServicer
}

// NewContributionHandler creates a new ContributionHandler.
func NewContributionHandler(contributionService services.ContributionServicer, auditService services.AuditServicer) *ContributionHandler {
	return &ContributionHandler{contributionService: contributionService, auditService: auditService}
}

// AddAdjustmentRequest represents the request payload for a manual adjustment.
type AddAdjustmentRequest struct {
	UserID uint                  `json:"user_id" binding:"required"`
	Amount int64                 `json:"amount" binding:"required"`
	Kind   models.AdjustmentKind `json:"kind" binding:"required,adjustment_kind"`
	Reason string                `json:"reason" binding:"required,min=1,max=500"`
}

// GetContributions handles retrieving the contribution report for a month.
// @Summary     Get contributions
// @Description Get the recomputed contribution report for (year, month)
// @Tags        contributions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int true "Household ID"
// @Param       year  query int true "Year"
// @Param       month query int true "Month (1-12)"
// @Success     200 {object} services.ContributionReport "Contribution report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/contributions [get]
func (h *ContributionHandler) GetContributions(c *gin.Context) {
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

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, "year is required"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, "month must be between 1 and 12"))
		return
	}

	report, err := h.contributionService.GetContributions(householdID, userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// AddAdjustment handles recording a manual adjustment to a member's expected
// amount.
// @Summary     Add adjustment
// @Description Record a manual delta to a member's expected contribution (owner only, reason mandatory)
// @Tags        contributions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path int                  true "Household ID"
// @Param       periodID path int                  true "Period ID"
// @Param       request  body AddAdjustmentRequest true "Adjustment details"
// @Success     201 {object} models.Adjustment "Adjustment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the household owner"
// @Failure     409 {object} ErrorResponse "Period no longer mutable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/periods/{periodID}/adjustments [post]
func (h *ContributionHandler) AddAdjustment(c *gin.Context) {
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
	periodID, err := parsePathID(c, "periodID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	adjustment, err := h.contributionService.AddAdjustment(householdID, userID, req.UserID, periodID,
		req.Amount, req.Kind, req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "ADD_ADJUSTMENT", "adjustment", adjustment.ID, c.ClientIP(),
		map[string]interface{}{"user_id": req.UserID, "amount": req.Amount, "kind": req.Kind, "reason": req.Reason})

	c.JSON(http.StatusCreated, gin.H{"adjustment": adjustment})
}
