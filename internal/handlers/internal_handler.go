package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "homefund/internal/errors"
	"homefund/internal/services"
)

// InternalHandler serves the key-authenticated routes used by the export and
// notification collaborators. These read period state without a member
// session, so they bypass membership checks.
type InternalHandler struct {
	periodService services.PeriodServicer
}

// NewInternalHandler creates a new InternalHandler.
func NewInternalHandler(periodService services.PeriodServicer) *InternalHandler {
	return &InternalHandler{periodService: periodService}
}

// GetPeriodStatus returns a period's phase for a household month. The
// notification collaborator polls this to announce phase changes.
func (h *InternalHandler) GetPeriodStatus(c *gin.Context) {
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

	period, err := h.periodService.FindPeriod(householdID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period_id":    period.ID,
		"phase":        period.Phase,
		"legacy_state": period.LegacyState(),
		"closed_at":    period.ClosedAt,
	})
}
