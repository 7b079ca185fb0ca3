package testutil_test

import (
	"testing"
	"time"

	"coinwise/internal/errors"
	"coinwise/internal/models"
	"coinwise/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "transactions", "budgets", "budget_transactions", "goals", "contributions", "statement_uploads", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have a non-empty ID")
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeIncome, 1000)
	if tx.Amount != 1000 {
		t.Errorf("expected amount 1000, got %d", tx.Amount)
	}

	expense := testutil.CreateTestExpense(t, db, user.ID, "Groceries", 2500, time.Now())
	if expense.Type != models.TransactionTypeExpense {
		t.Errorf("expected expense type, got %s", expense.Type)
	}
	if expense.Category != "Groceries" {
		t.Errorf("expected Groceries category, got %s", expense.Category)
	}

	budget := testutil.CreateTestBudget(t, db, user.ID, "Groceries", 10000)
	if budget.Amount != 10000 {
		t.Errorf("expected budget amount 10000, got %d", budget.Amount)
	}
	if budget.Remaining != 10000 {
		t.Errorf("expected remaining 10000, got %d", budget.Remaining)
	}

	goal := testutil.CreateTestGoal(t, db, user.ID, 50000)
	if goal.TargetAmount != 50000 {
		t.Errorf("expected target 50000, got %d", goal.TargetAmount)
	}
}

func TestAssertAppError(t *testing.T) {
	// Verify AssertAppError unwraps wrapped errors.
	wrapped := errors.Wrap(errors.ErrBudgetNotFound, nil)
	testutil.AssertAppError(t, wrapped, "BUDGET_NOT_FOUND")
}
