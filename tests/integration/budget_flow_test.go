package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestBudgetFlow_ExpensesLinkToBudget(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "budget@test.com", "password123")

	// Step 1: Create a monthly budget of $200 for Groceries
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"title":"Grocery Budget","category":"Groceries","amount":20000,"start_date":%q,"end_date":%q}`,
			start.Format(time.RFC3339), end.Format(time.RFC3339)), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating budget, got %d: %s", rec.Code, rec.Body.String())
	}
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	budgetID := budget["id"].(string)
	if budget["remaining"].(float64) != 20000 {
		t.Errorf("expected remaining 20000 on a fresh budget, got %v", budget["remaining"])
	}

	// Step 2: Add expenses in the budget's category and window
	for _, amount := range []int64{8000, 5000} {
		rec = app.request("POST", "/api/v1/transactions",
			fmt.Sprintf(`{"type":"expense","amount":%d,"category":"Groceries","merchant":"Lidl","date":%q}`,
				amount, now.Format(time.RFC3339)), token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 creating expense, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	// An expense in another category does not count against the budget.
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":9999,"category":"Dining","merchant":"Pizzeria Roma","date":%q}`,
			now.Format(time.RFC3339)), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 3: The budget reflects the linked spending
	rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	budget = parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["spent"].(float64) != 13000 {
		t.Errorf("expected 13000 spent (8000+5000), got %v", budget["spent"])
	}
	if budget["remaining"].(float64) != 7000 {
		t.Errorf("expected 7000 remaining, got %v", budget["remaining"])
	}
}

func TestBudgetFlow_DeletingExpenseReleasesSpending(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "release@test.com", "password123")

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -15)
	end := now.AddDate(0, 0, 15)
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"title":"Dining","category":"Dining","amount":10000,"start_date":%q,"end_date":%q}`,
			start.Format(time.RFC3339), end.Format(time.RFC3339)), token)
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":4500,"category":"Dining","merchant":"Pizzeria Roma","date":%q}`,
			now.Format(time.RFC3339)), token)
	txID := parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)

	rec = app.request("DELETE", "/api/v1/transactions/"+txID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting transaction, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["spent"].(float64) != 0 {
		t.Errorf("expected spending released after delete, got %v", budget["spent"])
	}
	if budget["remaining"].(float64) != 10000 {
		t.Errorf("expected remaining restored, got %v", budget["remaining"])
	}
}

func TestBudgetFlow_EditedExpenseReconciles(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "reconcile@test.com", "password123")

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -15)
	end := now.AddDate(0, 0, 15)
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"title":"Transport","category":"Transport","amount":10000,"start_date":%q,"end_date":%q}`,
			start.Format(time.RFC3339), end.Format(time.RFC3339)), token)
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":2000,"category":"Transport","merchant":"NS","date":%q}`,
			now.Format(time.RFC3339)), token)
	txID := parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)

	// Raise the amount; the budget's spent follows the delta.
	rec = app.request("PUT", "/api/v1/transactions/"+txID,
		fmt.Sprintf(`{"type":"expense","amount":3500,"category":"Transport","merchant":"NS","date":%q}`,
			now.Format(time.RFC3339)), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating expense, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["spent"].(float64) != 3500 {
		t.Errorf("expected spent 3500 after edit, got %v", budget["spent"])
	}

	// Move the expense to another category; the link is removed.
	rec = app.request("PUT", "/api/v1/transactions/"+txID,
		fmt.Sprintf(`{"type":"expense","amount":3500,"category":"Entertainment","merchant":"NS","date":%q}`,
			now.Format(time.RFC3339)), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	budget = parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["spent"].(float64) != 0 {
		t.Errorf("expected spent 0 after relink, got %v", budget["spent"])
	}
}

func TestBudgetFlow_UsersAreIsolated(t *testing.T) {
	app := setupApp(t)
	tokenA, _, _ := app.registerUser(t, "alice@test.com", "password123")
	tokenB, _, _ := app.registerUser(t, "bob@test.com", "password123")

	now := time.Now().UTC()
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"title":"Private","category":"Groceries","amount":5000,"start_date":%q,"end_date":%q}`,
			now.Format(time.RFC3339), now.AddDate(0, 1, 0).Format(time.RFC3339)), tokenA)
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(string)

	rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", tokenB)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other user's budget, got %d", rec.Code)
	}
}
