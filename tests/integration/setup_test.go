package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"homefund/internal/handlers"
	"homefund/internal/logger"
	"homefund/internal/middleware"
	"homefund/internal/models"
	"homefund/internal/services"
	"homefund/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Household{},
		&models.HouseholdMember{},
		&models.MemberIncome{},
		&models.Category{},
		&models.MonthlyPeriod{},
		&models.Transaction{},
		&models.Contribution{},
		&models.Adjustment{},
		&models.Credit{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	householdService := services.NewHouseholdService(db)
	contributionService := services.NewContributionService(db)
	creditService := services.NewCreditService(db, contributionService)
	periodService := services.NewPeriodService(db, contributionService, creditService)
	transactionService := services.NewTransactionService(db, periodService)
	loanService := services.NewLoanService(db, transactionService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	householdHandler := handlers.NewHouseholdHandler(householdService, auditService)
	periodHandler := handlers.NewPeriodHandler(periodService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	contributionHandler := handlers.NewContributionHandler(contributionService, auditService)
	creditHandler := handlers.NewCreditHandler(creditService, auditService)
	loanHandler := handlers.NewLoanHandler(loanService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	households := protected.Group("/households")
	households.POST("", householdHandler.CreateHousehold)
	households.GET("/:id", householdHandler.GetHousehold)
	households.PUT("/:id", householdHandler.UpdateSettings)
	households.POST("/:id/members", householdHandler.AddMember)
	households.POST("/:id/incomes", householdHandler.SetIncome)
	households.POST("/:id/categories", householdHandler.CreateCategory)
	households.GET("/:id/categories", householdHandler.GetCategories)

	households.POST("/:id/periods", periodHandler.CreatePeriod)
	households.GET("/:id/periods/:periodID", periodHandler.GetPeriod)
	households.POST("/:id/periods/:periodID/lock", periodHandler.Lock)
	households.POST("/:id/periods/:periodID/open", periodHandler.Open)
	households.POST("/:id/periods/:periodID/close/start", periodHandler.StartClosing)
	households.POST("/:id/periods/:periodID/close", periodHandler.Close)
	households.POST("/:id/periods/:periodID/reopen", periodHandler.Reopen)
	households.POST("/:id/periods/:periodID/adjustments", contributionHandler.AddAdjustment)

	households.GET("/:id/contributions", contributionHandler.GetContributions)

	households.POST("/:id/transactions", transactionHandler.RecordTransaction)
	households.GET("/:id/transactions", transactionHandler.GetTransactions)
	households.GET("/:id/transactions/:transactionID", transactionHandler.GetTransaction)
	households.PUT("/:id/transactions/:transactionID", transactionHandler.UpdateTransaction)
	households.DELETE("/:id/transactions/:transactionID", transactionHandler.DeleteTransaction)

	households.GET("/:id/credits", creditHandler.GetCredits)
	households.POST("/:id/credits/:creditID/apply", creditHandler.ApplyCredit)

	households.POST("/:id/loans", loanHandler.RequestLoan)
	households.POST("/:id/loans/:loanID/approve", loanHandler.ApproveLoan)
	households.POST("/:id/loans/repay", loanHandler.RepayLoan)
	households.GET("/:id/loans/debt", loanHandler.GetDebt)
	households.GET("/:id/loans/balance", loanHandler.GetBalance)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// createHousehold creates a household and returns its ID.
func (app *testApp) createHousehold(t *testing.T, token, name string, budget int64) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"currency":"EUR","monthly_budget":%d,"calculation_type":"proportional"}`, name, budget)
	rec := app.request("POST", "/api/v1/households", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create household failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	household := result["household"].(map[string]interface{})
	return household["id"].(float64)
}

// setIncome records a member income effective from the given date.
func (app *testApp) setIncome(t *testing.T, token string, householdID, userID float64, amount int64, from string) {
	t.Helper()
	body := fmt.Sprintf(`{"user_id":%.0f,"amount":%d,"effective_from":%q}`, userID, amount, from)
	rec := app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/incomes", householdID), body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("set income failed: %d %s", rec.Code, rec.Body.String())
	}
}

// createPeriod creates a period and returns its ID.
func (app *testApp) createPeriod(t *testing.T, token string, householdID float64, year, month int) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"year":%d,"month":%d}`, year, month)
	rec := app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/periods", householdID), body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create period failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	period := result["period"].(map[string]interface{})
	return period["id"].(float64)
}

// transitionPeriod posts to a period lifecycle endpoint and asserts success.
func (app *testApp) transitionPeriod(t *testing.T, token string, householdID, periodID float64, action string) {
	t.Helper()
	rec := app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/periods/%.0f/%s", householdID, periodID, action), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("period %s failed: %d %s", action, rec.Code, rec.Body.String())
	}
}
