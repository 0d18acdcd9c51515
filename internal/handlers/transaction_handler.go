package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
	"homefund/internal/pagination"
	"homefund/internal/services"
)

// TransactionHandler handles ledger movement requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// RecordTransactionRequest represents the request payload for recording a movement.
type RecordTransactionRequest struct {
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	FlowType    models.FlowType        `json:"flow_type" binding:"required,flow_type"`
	Amount      int64                  `json:"amount" binding:"required,gt=0"`
	CategoryID  *uint                  `json:"category_id"`
	PeriodID    *uint                  `json:"period_id"`
	Description string                 `json:"description" binding:"max=500"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

// UpdateTransactionRequest represents the request payload for editing a movement.
type UpdateTransactionRequest struct {
	Amount      *int64     `json:"amount" binding:"omitempty,gt=0"`
	CategoryID  *uint      `json:"category_id"`
	OccurredAt  *time.Time `json:"occurred_at"`
	Description *string    `json:"description" binding:"omitempty,max=500"`
}

// TransactionPairResponse represents a recorded movement with its optional
// compensatory half.
type TransactionPairResponse struct {
	Transaction  models.Transaction  `json:"transaction"`
	Compensation *models.Transaction `json:"compensation,omitempty"`
}

// RecordTransaction handles recording a movement.
// @Summary     Record a movement
// @Description Record a common or direct movement; direct movements get a compensatory counter-entry
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                      true "Household ID"
// @Param       request body RecordTransactionRequest true "Movement details"
// @Success     201 {object} TransactionPairResponse "Movement recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Movement not permitted in the period's phase"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/transactions [post]
func (h *TransactionHandler) RecordTransaction(c *gin.Context) {
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

	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	movement, pair, err := h.transactionService.Record(services.RecordMovementInput{
		HouseholdID: householdID,
		PerformerID: userID,
		Type:        req.Type,
		FlowType:    req.FlowType,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		PeriodID:    req.PeriodID,
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "RECORD_TRANSACTION", "transaction", movement.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "flow_type": req.FlowType, "amount": req.Amount})

	resp := gin.H{"transaction": movement}
	if pair != nil {
		resp["compensation"] = pair
	}
	c.JSON(http.StatusCreated, resp)
}

// GetTransactions handles listing the household's movements.
// @Summary     Get movements
// @Description Get a paginated, filtered list of the household's movements
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id           path  int    true  "Household ID"
// @Param       from_date    query string false "Start date (RFC 3339)"
// @Param       to_date      query string false "End date (RFC 3339)"
// @Param       type         query string false "Filter by movement type"
// @Param       flow_type    query string false "Filter by flow (common/direct)"
// @Param       category_id  query int    false "Filter by category"
// @Param       performer_id query int    false "Filter by performer"
// @Param       period_id    query int    false "Filter by period"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated movements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(householdID, page, *filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles retrieving a single movement.
// @Summary     Get movement by ID
// @Description Get a specific movement by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id            path int true "Household ID"
// @Param       transactionID path int true "Transaction ID"
// @Success     200 {object} models.Transaction "Movement details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/transactions/{transactionID} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	transactionID, err := parsePathID(c, "transactionID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := h.transactionService.GetByID(householdID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": movement})
}

// UpdateTransaction handles editing a movement. Paired movements are patched
// symmetrically.
// @Summary     Update movement
// @Description Edit a movement; amount, date, and category changes apply to both pair halves
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id            path int                      true "Household ID"
// @Param       transactionID path int                      true "Transaction ID"
// @Param       request       body UpdateTransactionRequest true "Updated movement details"
// @Success     200 {object} models.Transaction "Updated movement"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     409 {object} ErrorResponse "Period no longer mutable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/transactions/{transactionID} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
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
	transactionID, err := parsePathID(c, "transactionID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	movement, err := h.transactionService.Edit(householdID, transactionID, services.MovementPatch{
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		OccurredAt:  req.OccurredAt,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UPDATE_TRANSACTION", "transaction", transactionID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	c.JSON(http.StatusOK, gin.H{"transaction": movement})
}

// DeleteTransaction handles deleting a movement together with its pair half.
// @Summary     Delete movement
// @Description Delete a movement; both halves of a pair are removed together
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id            path int true "Household ID"
// @Param       transactionID path int true "Transaction ID"
// @Success     200 {object} MessageResponse "Movement deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     409 {object} ErrorResponse "Period no longer mutable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/transactions/{transactionID} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
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
	transactionID, err := parsePathID(c, "transactionID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.Delete(householdID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// parseTransactionFilter reads the optional list filters from query params.
func parseTransactionFilter(c *gin.Context) (*services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "from_date must be RFC 3339")
		}
		filter.FromDate = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "to_date must be RFC 3339")
		}
		filter.ToDate = &t
	}
	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		switch t {
		case models.TransactionTypeIncome, models.TransactionTypeExpense,
			models.TransactionTypeIncomeDirect, models.TransactionTypeExpenseDirect:
			filter.Type = &t
		default:
			return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "invalid transaction type")
		}
	}
	if v := c.Query("flow_type"); v != "" {
		f := models.FlowType(v)
		if f != models.FlowTypeCommon && f != models.FlowTypeDirect {
			return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "flow_type must be 'common' or 'direct'")
		}
		filter.FlowType = &f
	}

	for param, target := range map[string]**uint{
		"category_id":  &filter.CategoryID,
		"performer_id": &filter.PerformerID,
		"period_id":    &filter.PeriodID,
	} {
		if v := c.Query(param); v != "" {
			id, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "Invalid "+param)
			}
			u := uint(id)
			*target = &u
		}
	}

	return &filter, nil
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}
