package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "homefund/internal/errors"
	"homefund/internal/models"
	"homefund/internal/services"
)

// HouseholdHandler handles household configuration and membership requests.
type HouseholdHandler struct {
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewHouseholdHandler creates a new HouseholdHandler.
func NewHouseholdHandler(householdService services.HouseholdServicer, auditService services.AuditServicer) *HouseholdHandler {
	return &HouseholdHandler{householdService: householdService, auditService: auditService}
}

// CreateHouseholdRequest represents the request payload for creating a household.
type CreateHouseholdRequest struct {
	Name            string                 `json:"name" binding:"required,min=1,max=100"`
	Currency        string                 `json:"currency" binding:"required,iso4217"`
	MonthlyBudget   int64                  `json:"monthly_budget" binding:"omitempty,gte=0"`
	CalculationType models.CalculationType `json:"calculation_type" binding:"required,calculation_type"`
}

// UpdateSettingsRequest represents the request payload for updating household settings.
type UpdateSettingsRequest struct {
	MonthlyBudget   *int64                  `json:"monthly_budget" binding:"omitempty,gte=0"`
	CalculationType *models.CalculationType `json:"calculation_type" binding:"omitempty,calculation_type"`
}

// AddMemberRequest represents the request payload for adding a member.
type AddMemberRequest struct {
	UserID uint              `json:"user_id" binding:"required"`
	Role   models.MemberRole `json:"role" binding:"omitempty,member_role"`
}

// SetIncomeRequest represents the request payload for recording a member income.
type SetIncomeRequest struct {
	UserID        uint      `json:"user_id" binding:"required"`
	Amount        int64     `json:"amount" binding:"gte=0"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// CreateCategoryRequest represents the request payload for creating a category.
type CreateCategoryRequest struct {
	Name        string              `json:"name" binding:"required,min=1,max=100"`
	Type        models.CategoryType `json:"type" binding:"required,category_type"`
	Description string              `json:"description" binding:"max=500"`
}

// CreateHousehold handles the creation of a new household.
// @Summary     Create a household
// @Description Create a new household with the authenticated user as owner
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateHouseholdRequest true "Household details"
// @Success     201 {object} models.Household "Household created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households [post]
func (h *HouseholdHandler) CreateHousehold(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	household, err := h.householdService.CreateHousehold(userID, req.Name, req.Currency, req.MonthlyBudget, req.CalculationType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, household.ID, "CREATE_HOUSEHOLD", "household", household.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "calculation_type": req.CalculationType})

	c.JSON(http.StatusCreated, gin.H{"household": household})
}

// GetHousehold handles retrieving a household.
// @Summary     Get household by ID
// @Description Get a household the authenticated user belongs to
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Household ID"
// @Success     200 {object} models.Household "Household details"
// @Failure     400 {object} ErrorResponse "Invalid household ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Household not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id} [get]
func (h *HouseholdHandler) GetHousehold(c *gin.Context) {
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

	household, err := h.householdService.GetHousehold(householdID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"household": household})
}

// UpdateSettings handles updating household settings.
// @Summary     Update household settings
// @Description Update the household budget and calculation type (owner only)
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                   true "Household ID"
// @Param       request body UpdateSettingsRequest true "Updated settings"
// @Success     200 {object} models.Household "Updated household"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the household owner"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id} [put]
func (h *HouseholdHandler) UpdateSettings(c *gin.Context) {
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

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	household, err := h.householdService.UpdateSettings(householdID, userID, req.MonthlyBudget, req.CalculationType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "UPDATE_HOUSEHOLD_SETTINGS", "household", householdID, c.ClientIP(),
		map[string]interface{}{"monthly_budget": req.MonthlyBudget, "calculation_type": req.CalculationType})

	c.JSON(http.StatusOK, gin.H{"household": household})
}

// AddMember handles adding a user to the household.
// @Summary     Add household member
// @Description Add a user to the household (owner only)
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int              true "Household ID"
// @Param       request body AddMemberRequest true "Member details"
// @Success     201 {object} models.HouseholdMember "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the household owner"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/members [post]
func (h *HouseholdHandler) AddMember(c *gin.Context) {
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

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	membership, err := h.householdService.AddMember(householdID, userID, req.UserID, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "ADD_MEMBER", "household_member", membership.ID, c.ClientIP(),
		map[string]interface{}{"user_id": req.UserID, "role": membership.Role})

	c.JSON(http.StatusCreated, gin.H{"member": membership})
}

// SetIncome handles recording a member's income.
// @Summary     Set member income
// @Description Record a member's monthly income effective from a date. Members set their own; the owner may set anyone's.
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int              true "Household ID"
// @Param       request body SetIncomeRequest true "Income details"
// @Success     201 {object} models.MemberIncome "Income recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not permitted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/incomes [post]
func (h *HouseholdHandler) SetIncome(c *gin.Context) {
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

	var req SetIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	income, err := h.householdService.SetMemberIncome(householdID, userID, req.UserID, req.Amount, req.EffectiveFrom)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "SET_MEMBER_INCOME", "member_income", income.ID, c.ClientIP(),
		map[string]interface{}{"user_id": req.UserID, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"income": income})
}

// CreateCategory handles creating a household category.
// @Summary     Create category
// @Description Create a transaction category in the household
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                   true "Household ID"
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/categories [post]
func (h *HouseholdHandler) CreateCategory(c *gin.Context) {
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

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error()))
		return
	}

	category, err := h.householdService.CreateCategory(householdID, userID, req.Name, req.Type, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, householdID, "CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "type": req.Type})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories handles listing the household's categories.
// @Summary     Get categories
// @Description List the household's transaction categories
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Household ID"
// @Success     200 {array} models.Category "Categories"
// @Failure     400 {object} ErrorResponse "Invalid household ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households/{id}/categories [get]
func (h *HouseholdHandler) GetCategories(c *gin.Context) {
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

	categories, err := h.householdService.GetCategories(householdID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
