package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "homefund/internal/errors"
	"homefund/internal/services"
)

// PeriodHandler handles monthly-period lifecycle requests.
type PeriodHandler struct {
	periodService services.PeriodServicer
	auditService  services.AuditServicer
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodService services.PeriodServicer, auditService services.AuditServicer) *PeriodHandler {
	return &PeriodHandler{periodService: periodService, auditService: auditService}
}

// CreatePeriodRequest represents the request payload for creating a period.
type CreatePeriodRequest struct {
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

// StartClosingRequest represents the request payload for starting the close.
type StartClosingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ClosePeriodRequest represents the request payload for closing a period.
type ClosePeriodRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// CreatePeriod handles the creation of a monthly period.
// @Summary     Create a monthly period
// @Description Create a period for (year, month), snapshotting the household configuration
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                 true "Household ID"
// @Param       request body CreatePeriodRequest true "Period month"
// @Success     201 {object} models.MonthlyPeriod "Period created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Period already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/periods [post]
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
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

	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	period, err := h.periodService.CreatePeriod(householdID, userID, req.Year, req.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "CREATE_PERIOD", "monthly_period", period.ID, c.ClientIP(),
		map[string]interface{}{"year": req.Year, "month": req.Month})

	c.JSON(http.StatusCreated, gin.H{"period": period})
}

// GetPeriod handles retrieving a period.
// @Summary     Get period by ID
// @Description Get a monthly period with its phase and snapshots
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path int true "Household ID"
// @Param       periodID path int true "Period ID"
// @Success     200 {object} models.MonthlyPeriod "Period details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/periods/{periodID} [get]
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
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

	period, err := h.periodService.GetPeriod(householdID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":       period,
		"legacy_state": period.LegacyState(),
	})
}

// Lock handles the preparing → validation transition.
// @Summary     Lock a period
// @Description Move a period from preparing to validation once budget and incomes are configured
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path int true "Household ID"
// @Param       periodID path int true "Period ID"
// @Success     200 {object} MessageResponse "Period locked"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Period not in the expected phase"
// @Failure     412 {object} ErrorResponse "Preconditions not met"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/periods/{periodID}/lock [post]
func (h *PeriodHandler) Lock(c *gin.Context) {
	h.transition(c, "LOCK_PERIOD", func(householdID, periodID, userID uint) error {
		return h.periodService.Lock(householdID, periodID, userID)
	}, "Period locked for validation")
}

// Open handles the validation → active transition.
// @Summary     Open a period
// @Description Move a period from validation to active
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path int true "Household ID"
// @Param       periodID path int true "Period ID"
// @Success     200 {object} MessageResponse "Period opened"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Period not in the expected phase"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/periods/{periodID}/open [post]
func (h *PeriodHandler) Open(c *gin.Context) {
	h.transition(c, "OPEN_PERIOD", func(householdID, periodID, userID uint) error {
		return h.periodService.Open(householdID, periodID, userID)
	}, "Period opened")
}

// StartClosing handles the active → closing transition.
// @Summary     Start closing a period
// @Description Move a period from active to closing with a reason
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path int                 true "Household ID"
// @Param       periodID path int                 true "Period ID"
// @Param       request  body StartClosingRequest false "Closing reason"
// @Success     200 {object} MessageResponse "Closing started"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Period not in the expected phase"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/periods/{periodID}/close/start [post]
func (h *PeriodHandler) StartClosing(c *gin.Context) {
	var req StartClosingRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}
	h.transition(c, "START_CLOSING_PERIOD", func(householdID, periodID, userID uint) error {
		return h.periodService.StartClosing(householdID, periodID, userID, req.Reason)
	}, "Period closing started")
}

// Close handles the final close: contributions are settled and overpayments
// turn into credits.
// @Summary     Close a period
// @Description Close a period, settling contributions and detecting overpayments
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path int                true "Household ID"
// @Param       periodID path int                true "Period ID"
// @Param       request  body ClosePeriodRequest false "Closing notes"
// @Success     200 {object} MessageResponse "Period closed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Period not in the expected phase"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/periods/{periodID}/close [post]
func (h *PeriodHandler) Close(c *gin.Context) {
	var req ClosePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}
	h.transition(c, "CLOSE_PERIOD", func(householdID, periodID, userID uint) error {
		return h.periodService.Close(householdID, periodID, userID, req.Notes)
	}, "Period closed")
}

// Reopen handles the closed → active transition. Owner-only.
// @Summary     Reopen a closed period
// @Description Reopen a closed period for corrections (owner only)
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id       path int true "Household ID"
// @Param       periodID path int true "Period ID"
// @Success     200 {object} MessageResponse "Period reopened"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the household owner"
// @Failure     409 {object} ErrorResponse "Period not closed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/periods/{periodID}/reopen [post]
func (h *PeriodHandler) Reopen(c *gin.Context) {
	h.transition(c, "REOPEN_PERIOD", func(householdID, periodID, userID uint) error {
		return h.periodService.Reopen(householdID, periodID, userID)
	}, "Period reopened")
}

// transition factors the shared plumbing of the lifecycle endpoints.
func (h *PeriodHandler) transition(c *gin.Context, action string, fn func(householdID, periodID, userID uint) error, message string) {
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

	if err := fn(householdID, periodID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, action, "monthly_period", periodID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": message})
}
