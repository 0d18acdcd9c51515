package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// Two members split a 1000.00 budget proportionally (3:1 incomes). The owner
// overpays through a direct expense, the overpayment becomes a credit at
// close, and the credit is applied to the following month.
func TestLedgerFlow_ProportionalMonthWithCredit(t *testing.T) {
	app := setupApp(t)
	ownerToken, _, ownerID := app.registerUser(t, "owner@test.com", "password123")
	memberToken, _, memberID := app.registerUser(t, "member@test.com", "password123")

	householdID := app.createHousehold(t, ownerToken, "Casa", 100000)

	rec := app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/members", householdID),
		fmt.Sprintf(`{"user_id":%.0f}`, memberID), ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add member failed: %d %s", rec.Code, rec.Body.String())
	}

	app.setIncome(t, ownerToken, householdID, ownerID, 300000, "2025-01-01T00:00:00Z")
	app.setIncome(t, memberToken, householdID, memberID, 100000, "2025-01-01T00:00:00Z")

	// A category for common contributions into the fund.
	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/categories", householdID),
		`{"name":"Fund contribution","type":"income"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	categoryID := parseJSON(t, rec)["category"].(map[string]interface{})["id"].(float64)

	marchID := app.createPeriod(t, ownerToken, householdID, 2025, 3)
	app.transitionPeriod(t, ownerToken, householdID, marchID, "lock")
	app.transitionPeriod(t, ownerToken, householdID, marchID, "open")

	// Owner pays 800.00 directly; the compensatory income lands in the fund.
	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/transactions", householdID),
		`{"type":"expense_direct","flow_type":"direct","amount":80000,"description":"Rent","occurred_at":"2025-03-05T12:00:00Z"}`,
		ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("direct expense failed: %d %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["compensation"] == nil {
		t.Fatal("expected a compensatory entry for the direct expense")
	}

	// Member pays 100.00 into the fund.
	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/transactions", householdID),
		fmt.Sprintf(`{"type":"income","flow_type":"common","amount":10000,"category_id":%.0f,"occurred_at":"2025-03-10T12:00:00Z"}`, categoryID),
		memberToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("common income failed: %d %s", rec.Code, rec.Body.String())
	}

	// 3:1 incomes against a 1000.00 budget: 750.00 and 250.00 expected.
	rec = app.request("GET", fmt.Sprintf("/api/v1/households/%.0f/contributions?year=2025&month=3", householdID), "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("get contributions failed: %d %s", rec.Code, rec.Body.String())
	}
	byUser := contributionsByUser(t, parseJSON(t, rec))
	owner := byUser[ownerID]
	if owner["expected_amount"].(float64) != 75000 || owner["paid_amount"].(float64) != 80000 {
		t.Errorf("unexpected owner contribution: expected %v paid %v", owner["expected_amount"], owner["paid_amount"])
	}
	if owner["status"] != "overpaid" {
		t.Errorf("expected owner overpaid, got %v", owner["status"])
	}
	member := byUser[memberID]
	if member["expected_amount"].(float64) != 25000 || member["paid_amount"].(float64) != 10000 {
		t.Errorf("unexpected member contribution: expected %v paid %v", member["expected_amount"], member["paid_amount"])
	}
	if member["status"] != "partial" {
		t.Errorf("expected member partial, got %v", member["status"])
	}

	app.transitionPeriod(t, ownerToken, householdID, marchID, "close/start")
	app.transitionPeriod(t, ownerToken, householdID, marchID, "close")

	// The 50.00 overpayment became a credit.
	rec = app.request("GET", fmt.Sprintf("/api/v1/households/%.0f/credits", householdID), "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("get credits failed: %d %s", rec.Code, rec.Body.String())
	}
	credits := parseJSON(t, rec)["credits"].([]interface{})
	if len(credits) != 1 {
		t.Fatalf("expected 1 credit, got %d", len(credits))
	}
	credit := credits[0].(map[string]interface{})
	if credit["amount"].(float64) != 5000 {
		t.Errorf("expected credit of 5000, got %v", credit["amount"])
	}
	creditID := credit["id"].(float64)

	// Apply it to April.
	aprilID := app.createPeriod(t, ownerToken, householdID, 2025, 4)
	app.transitionPeriod(t, ownerToken, householdID, aprilID, "lock")
	app.transitionPeriod(t, ownerToken, householdID, aprilID, "open")

	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/credits/%.0f/apply", householdID, creditID),
		`{"decision":"apply_to_month"}`, ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply credit failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/households/%.0f/contributions?year=2025&month=4", householdID), "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("get contributions failed: %d %s", rec.Code, rec.Body.String())
	}
	aprilOwner := contributionsByUser(t, parseJSON(t, rec))[ownerID]
	if aprilOwner["paid_amount"].(float64) != 5000 {
		t.Errorf("expected the credit to count as 5000 paid in April, got %v", aprilOwner["paid_amount"])
	}

	// Re-applying the same credit is rejected.
	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/credits/%.0f/apply", householdID, creditID),
		`{"decision":"apply_to_month"}`, ownerToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on a second application, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLedgerFlow_PhaseGatesMovements(t *testing.T) {
	app := setupApp(t)
	ownerToken, _, ownerID := app.registerUser(t, "owner@test.com", "password123")

	householdID := app.createHousehold(t, ownerToken, "Casa", 100000)
	app.setIncome(t, ownerToken, householdID, ownerID, 300000, "2025-01-01T00:00:00Z")

	rec := app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/categories", householdID),
		`{"name":"Groceries","type":"expense"}`, ownerToken)
	categoryID := parseJSON(t, rec)["category"].(map[string]interface{})["id"].(float64)

	periodID := app.createPeriod(t, ownerToken, householdID, 2025, 5)

	// Nothing may be recorded while preparing.
	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/transactions", householdID),
		fmt.Sprintf(`{"type":"expense","flow_type":"common","amount":2500,"category_id":%.0f,"occurred_at":"2025-05-02T12:00:00Z"}`, categoryID),
		ownerToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while preparing, got %d: %s", rec.Code, rec.Body.String())
	}

	// Validation admits direct expenses only.
	app.transitionPeriod(t, ownerToken, householdID, periodID, "lock")

	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/transactions", householdID),
		fmt.Sprintf(`{"type":"expense","flow_type":"common","amount":2500,"category_id":%.0f,"occurred_at":"2025-05-02T12:00:00Z"}`, categoryID),
		ownerToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a common movement during validation, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/transactions", householdID),
		`{"type":"expense_direct","flow_type":"direct","amount":7000,"description":"Utility deposit","occurred_at":"2025-05-02T12:00:00Z"}`,
		ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected direct expense during validation to succeed, got %d: %s", rec.Code, rec.Body.String())
	}

	// Active admits everything.
	app.transitionPeriod(t, ownerToken, householdID, periodID, "open")

	rec = app.request("POST", fmt.Sprintf("/api/v1/households/%.0f/transactions", householdID),
		fmt.Sprintf(`{"type":"expense","flow_type":"common","amount":2500,"category_id":%.0f,"occurred_at":"2025-05-03T12:00:00Z"}`, categoryID),
		ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected common expense while active to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
}

// contributionsByUser indexes a contribution report response by user ID.
func contributionsByUser(t *testing.T, report map[string]interface{}) map[float64]map[string]interface{} {
	t.Helper()
	members, ok := report["members"].([]interface{})
	if !ok {
		t.Fatalf("expected members in report, got: %v", report)
	}
	byUser := make(map[float64]map[string]interface{}, len(members))
	for _, m := range members {
		entry := m.(map[string]interface{})
		byUser[entry["user_id"].(float64)] = entry
	}
	return byUser
}
