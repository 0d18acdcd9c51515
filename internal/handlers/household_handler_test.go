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

type mockHouseholdService struct {
	createHouseholdFn func(ownerID uint, name, currency string, monthlyBudget int64, calculationType models.CalculationType) (*models.Household, error)
	getHouseholdFn    func(householdID, userID uint) (*models.Household, error)
	updateSettingsFn  func(householdID, actorID uint, monthlyBudget *int64, calculationType *models.CalculationType) (*models.Household, error)
	addMemberFn       func(householdID, actorID, userID uint, role models.MemberRole) (*models.HouseholdMember, error)
	membershipFn      func(householdID, userID uint) (*models.HouseholdMember, error)
	setMemberIncomeFn func(householdID, actorID, userID uint, amount int64, effectiveFrom time.Time) (*models.MemberIncome, error)
	effectiveIncomeFn func(householdID, userID uint, at time.Time) (int64, error)
	createCategoryFn  func(householdID, userID uint, name string, categoryType models.CategoryType, description string) (*models.Category, error)
	getCategoriesFn   func(householdID, userID uint) ([]models.Category, error)
}

func (m *mockHouseholdService) CreateHousehold(ownerID uint, name, currency string, monthlyBudget int64, calculationType models.CalculationType) (*models.Household, error) {
	if m.createHouseholdFn != nil {
		return m.createHouseholdFn(ownerID, name, currency, monthlyBudget, calculationType)
	}
	return &models.Household{}, nil
}

func (m *mockHouseholdService) GetHousehold(householdID, userID uint) (*models.Household, error) {
	if m.getHouseholdFn != nil {
		return m.getHouseholdFn(householdID, userID)
	}
	return &models.Household{Base: models.Base{ID: householdID}}, nil
}

func (m *mockHouseholdService) UpdateSettings(householdID, actorID uint, monthlyBudget *int64, calculationType *models.CalculationType) (*models.Household, error) {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(householdID, actorID, monthlyBudget, calculationType)
	}
	return &models.Household{Base: models.Base{ID: householdID}}, nil
}

func (m *mockHouseholdService) AddMember(householdID, actorID, userID uint, role models.MemberRole) (*models.HouseholdMember, error) {
	if m.addMemberFn != nil {
		return m.addMemberFn(householdID, actorID, userID, role)
	}
	return &models.HouseholdMember{}, nil
}

func (m *mockHouseholdService) Membership(householdID, userID uint) (*models.HouseholdMember, error) {
	if m.membershipFn != nil {
		return m.membershipFn(householdID, userID)
	}
	return &models.HouseholdMember{}, nil
}

func (m *mockHouseholdService) SetMemberIncome(householdID, actorID, userID uint, amount int64, effectiveFrom time.Time) (*models.MemberIncome, error) {
	if m.setMemberIncomeFn != nil {
		return m.setMemberIncomeFn(householdID, actorID, userID, amount, effectiveFrom)
	}
	return &models.MemberIncome{}, nil
}

func (m *mockHouseholdService) EffectiveIncome(householdID, userID uint, at time.Time) (int64, error) {
	if m.effectiveIncomeFn != nil {
		return m.effectiveIncomeFn(householdID, userID, at)
	}
	return 0, nil
}

func (m *mockHouseholdService) CreateCategory(householdID, userID uint, name string, categoryType models.CategoryType, description string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(householdID, userID, name, categoryType, description)
	}
	return &models.Category{}, nil
}

func (m *mockHouseholdService) GetCategories(householdID, userID uint) ([]models.Category, error) {
	if m.getCategoriesFn != nil {
		return m.getCategoriesFn(householdID, userID)
	}
	return []models.Category{}, nil
}

var _ services.HouseholdServicer = (*mockHouseholdService)(nil)

func setupHouseholdRouter(handler *HouseholdHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/households", handler.CreateHousehold)
	auth.GET("/households/:id", handler.GetHousehold)
	auth.PUT("/households/:id", handler.UpdateSettings)
	auth.POST("/households/:id/members", handler.AddMember)
	auth.POST("/households/:id/incomes", handler.SetIncome)
	auth.POST("/households/:id/categories", handler.CreateCategory)
	auth.GET("/households/:id/categories", handler.GetCategories)
	return r
}

func TestHouseholdHandler_CreateHousehold(t *testing.T) {
	t.Run("returns 201 with the household", func(t *testing.T) {
		hhSvc := &mockHouseholdService{
			createHouseholdFn: func(ownerID uint, name, currency string, monthlyBudget int64, calculationType models.CalculationType) (*models.Household, error) {
				if ownerID != 1 {
					t.Errorf("expected owner 1, got %d", ownerID)
				}
				return &models.Household{
					Base:            models.Base{ID: 5},
					Name:            name,
					Currency:        currency,
					MonthlyBudget:   monthlyBudget,
					CalculationType: calculationType,
				}, nil
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households",
			`{"name":"Casa","currency":"EUR","monthly_budget":100000,"calculation_type":"proportional"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		household := result["household"].(map[string]interface{})
		if household["name"] != "Casa" {
			t.Errorf("unexpected name %v", household["name"])
		}
	})

	t.Run("returns 400 on unknown currency", func(t *testing.T) {
		handler := NewHouseholdHandler(&mockHouseholdService{}, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households",
			`{"name":"Casa","currency":"EURO","calculation_type":"proportional"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_FAILED")
	})

	t.Run("returns 400 on unknown calculation type", func(t *testing.T) {
		handler := NewHouseholdHandler(&mockHouseholdService{}, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households",
			`{"name":"Casa","currency":"EUR","calculation_type":"weighted"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHouseholdHandler_UpdateSettings(t *testing.T) {
	t.Run("returns 200 with updated settings", func(t *testing.T) {
		hhSvc := &mockHouseholdService{
			updateSettingsFn: func(householdID, actorID uint, monthlyBudget *int64, calculationType *models.CalculationType) (*models.Household, error) {
				if monthlyBudget == nil || *monthlyBudget != 120000 {
					t.Errorf("expected budget 120000, got %v", monthlyBudget)
				}
				return &models.Household{Base: models.Base{ID: householdID}, MonthlyBudget: *monthlyBudget}, nil
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "PUT", "/households/5", `{"monthly_budget":120000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 403 for non-owner", func(t *testing.T) {
		hhSvc := &mockHouseholdService{
			updateSettingsFn: func(_, _ uint, _ *int64, _ *models.CalculationType) (*models.Household, error) {
				return nil, apperrors.WithMessage(apperrors.ErrPermissionDenied, "only the household owner can change settings")
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "PUT", "/households/5", `{"monthly_budget":120000}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PERMISSION_DENIED")
	})
}

func TestHouseholdHandler_AddMember(t *testing.T) {
	t.Run("returns 201 with the membership", func(t *testing.T) {
		hhSvc := &mockHouseholdService{
			addMemberFn: func(householdID, actorID, userID uint, role models.MemberRole) (*models.HouseholdMember, error) {
				return &models.HouseholdMember{
					HouseholdID: householdID,
					UserID:      userID,
					Role:        models.MemberRoleMember,
				}, nil
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households/5/members", `{"user_id":2}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 409 for an existing member", func(t *testing.T) {
		hhSvc := &mockHouseholdService{
			addMemberFn: func(_, _, _ uint, _ models.MemberRole) (*models.HouseholdMember, error) {
				return nil, apperrors.ErrDuplicateMember
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households/5/members", `{"user_id":2}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_MEMBER")
	})

	t.Run("returns 400 on bad role", func(t *testing.T) {
		handler := NewHouseholdHandler(&mockHouseholdService{}, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households/5/members", `{"user_id":2,"role":"admin"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHouseholdHandler_SetIncome(t *testing.T) {
	t.Run("returns 201 and forwards the effective date", func(t *testing.T) {
		var gotFrom time.Time
		hhSvc := &mockHouseholdService{
			setMemberIncomeFn: func(householdID, actorID, userID uint, amount int64, effectiveFrom time.Time) (*models.MemberIncome, error) {
				gotFrom = effectiveFrom
				return &models.MemberIncome{UserID: userID, Amount: amount, EffectiveFrom: effectiveFrom}, nil
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households/5/incomes",
			`{"user_id":1,"amount":300000,"effective_from":"2025-01-01T00:00:00Z"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFrom.Year() != 2025 || gotFrom.Month() != time.January {
			t.Errorf("expected effective date to be forwarded, got %v", gotFrom)
		}
	})

	t.Run("returns 403 when setting another member's income", func(t *testing.T) {
		hhSvc := &mockHouseholdService{
			setMemberIncomeFn: func(_, _, _ uint, _ int64, _ time.Time) (*models.MemberIncome, error) {
				return nil, apperrors.WithMessage(apperrors.ErrPermissionDenied, "members can only set their own income")
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households/5/incomes", `{"user_id":2,"amount":300000}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestHouseholdHandler_Categories(t *testing.T) {
	t.Run("create returns 201", func(t *testing.T) {
		hhSvc := &mockHouseholdService{
			createCategoryFn: func(householdID, userID uint, name string, categoryType models.CategoryType, description string) (*models.Category, error) {
				return &models.Category{HouseholdID: householdID, Name: name, Type: categoryType}, nil
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households/5/categories", `{"name":"Groceries","type":"expense"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("create returns 400 on bad type", func(t *testing.T) {
		handler := NewHouseholdHandler(&mockHouseholdService{}, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "POST", "/households/5/categories", `{"name":"Groceries","type":"misc"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("list returns the categories", func(t *testing.T) {
		hhSvc := &mockHouseholdService{
			getCategoriesFn: func(householdID, _ uint) ([]models.Category, error) {
				return []models.Category{
					{HouseholdID: householdID, Name: "Loan", Slug: models.CategorySlugLoan},
					{HouseholdID: householdID, Name: "Groceries"},
				}, nil
			},
		}
		handler := NewHouseholdHandler(hhSvc, &mockAuditService{})
		r := setupHouseholdRouter(handler)

		rec := doRequest(r, "GET", "/households/5/categories", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		categories := result["categories"].([]interface{})
		if len(categories) != 2 {
			t.Errorf("expected 2 categories, got %d", len(categories))
		}
	})
}
