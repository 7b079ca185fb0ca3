package services

import (
	"testing"
	"time"

	"coinwise/internal/models"
	"coinwise/internal/pagination"
	"coinwise/internal/testutil"

	"gorm.io/gorm"
)

func newTransactionService(db *gorm.DB) TransactionServicer {
	return NewTransactionService(db, NewLedgerService(db))
}

func TestCreateTransaction(t *testing.T) {
	t.Run("expense_links_to_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		budgets := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, "Groceries", 10000)

		tx, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:        models.TransactionTypeExpense,
			Amount:      2500,
			Date:        time.Now(),
			Currency:    "EUR",
			Category:    "Groceries",
			Description: "Weekly shop",
			Merchant:    "Lidl",
		})
		testutil.AssertNoError(t, err)
		if tx.ID == "" {
			t.Error("expected transaction ID to be set")
		}

		got, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if got.Spent != 2500 {
			t.Errorf("expected budget spent 2500, got %d", got.Spent)
		}
	})

	t.Run("expense_requires_category_and_merchant", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeExpense,
			Amount: 2500,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateTransaction(user.ID, TransactionInput{
			Type:     models.TransactionTypeExpense,
			Amount:   2500,
			Category: "Groceries",
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("transfer_requires_parties", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeTransfer,
			Amount: 2500,
			Sender: "John Smith",
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   "refund",
			Amount: 2500,
		})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("zero_date_defaults_to_now", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		tx, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:   models.TransactionTypeIncome,
			Amount: 100000,
		})
		testutil.AssertNoError(t, err)
		if tx.Date.IsZero() {
			t.Error("expected date to be defaulted")
		}
	})
}

func TestGetUserTransactions(t *testing.T) {
	t.Run("filters_by_type_and_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestExpense(t, db, user.ID, "Groceries", 1000, time.Now())
		testutil.CreateTestExpense(t, db, user.ID, "Transport", 2000, time.Now())
		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeIncome, 50000)

		expense := models.TransactionTypeExpense
		category := "Groceries"
		page, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{
			Type:     &expense,
			Category: &category,
		})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 transaction, got %d", page.TotalItems)
		}
	})

	t.Run("filters_by_amount_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestExpense(t, db, user.ID, "Groceries", 1000, time.Now())
		testutil.CreateTestExpense(t, db, user.ID, "Groceries", 5000, time.Now())
		testutil.CreateTestExpense(t, db, user.ID, "Groceries", 9000, time.Now())

		min := int64(2000)
		max := int64(8000)
		page, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{
			MinAmount: &min,
			MaxAmount: &max,
		})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 transaction in range, got %d", page.TotalItems)
		}
		if len(page.Data) == 1 && page.Data[0].Amount != 5000 {
			t.Errorf("expected the 5000 transaction, got %d", page.Data[0].Amount)
		}
	})

	t.Run("sorts_by_amount_ascending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestExpense(t, db, user.ID, "Groceries", 3000, time.Now())
		testutil.CreateTestExpense(t, db, user.ID, "Groceries", 1000, time.Now())
		testutil.CreateTestExpense(t, db, user.ID, "Groceries", 2000, time.Now())

		page, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{
			SortBy:    "amount",
			SortOrder: "asc",
		})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(page.Data))
		}
		for i := 1; i < len(page.Data); i++ {
			if page.Data[i].Amount < page.Data[i-1].Amount {
				t.Error("expected amounts in ascending order")
				break
			}
		}
	})

	t.Run("paginates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		for i := 0; i < 5; i++ {
			testutil.CreateTestExpense(t, db, user.ID, "Groceries", int64(1000*(i+1)), time.Now())
		}

		page, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{Page: 2, PageSize: 2}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 5 {
			t.Errorf("expected 5 total, got %d", page.TotalItems)
		}
		if len(page.Data) != 2 {
			t.Errorf("expected 2 on page, got %d", len(page.Data))
		}
		if page.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", page.TotalPages)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("amount_edit_adjusts_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		budgets := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, "Groceries", 10000)

		tx, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:     models.TransactionTypeExpense,
			Amount:   2000,
			Date:     time.Now(),
			Category: "Groceries",
			Merchant: "Lidl",
		})
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateTransaction(user.ID, tx.ID, TransactionInput{
			Type:     models.TransactionTypeExpense,
			Amount:   3500,
			Date:     tx.Date,
			Category: "Groceries",
			Merchant: "Lidl",
		})
		testutil.AssertNoError(t, err)

		got, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if got.Spent != 3500 {
			t.Errorf("expected spent 3500, got %d", got.Spent)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateTransaction(user.ID, "00000000-0000-0000-0000-000000000000", TransactionInput{
			Type:   models.TransactionTypeIncome,
			Amount: 1000,
		})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("releases_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		budgets := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, "Groceries", 10000)

		tx, err := svc.CreateTransaction(user.ID, TransactionInput{
			Type:     models.TransactionTypeExpense,
			Amount:   2000,
			Date:     time.Now(),
			Category: "Groceries",
			Merchant: "Lidl",
		})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))

		_, err = svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		got, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if got.Spent != 0 {
			t.Errorf("expected spent 0 after delete, got %d", got.Spent)
		}
	})
}

func TestRemoveDuplicates(t *testing.T) {
	day := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	createExpense := func(t *testing.T, svc TransactionServicer, userID, description, merchant string, amount int64) *models.Transaction {
		t.Helper()
		tx, err := svc.CreateTransaction(userID, TransactionInput{
			Type:        models.TransactionTypeExpense,
			Amount:      amount,
			Date:        day,
			Category:    "Food",
			Description: description,
			Merchant:    merchant,
		})
		testutil.AssertNoError(t, err)
		return tx
	}

	t.Run("removes_later_occurrences", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		kept := createExpense(t, svc, user.ID, "Coffee and pastry", "Starbucks Coffee", 850)
		dup := createExpense(t, svc, user.ID, "Coffee and pastry", "Starbucks Cofee", 850)
		createExpense(t, svc, user.ID, "Dinner with friends", "La Trattoria", 4200)

		result, err := svc.RemoveDuplicates(user.ID)
		testutil.AssertNoError(t, err)
		if result.RemovedCount != 1 {
			t.Fatalf("expected 1 removed, got %d", result.RemovedCount)
		}
		if result.RemovedIDs[0] != dup.ID {
			t.Errorf("expected duplicate %s removed, got %s", dup.ID, result.RemovedIDs[0])
		}

		_, err = svc.GetTransactionByID(user.ID, kept.ID)
		testutil.AssertNoError(t, err)
		_, err = svc.GetTransactionByID(user.ID, dup.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("adjusts_budget_for_removed_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		budgets := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budget, err := budgets.CreateBudget(user.ID, BudgetInput{
			Title:     "Food",
			Category:  "Food",
			Amount:    10000,
			StartDate: day.AddDate(0, 0, -5),
			EndDate:   day.AddDate(0, 0, 5),
		})
		testutil.AssertNoError(t, err)

		createExpense(t, svc, user.ID, "Coffee and pastry", "Starbucks Coffee", 850)
		createExpense(t, svc, user.ID, "Coffee and pastry", "Starbucks Coffee", 850)

		result, err := svc.RemoveDuplicates(user.ID)
		testutil.AssertNoError(t, err)
		if result.RemovedCount != 1 {
			t.Fatalf("expected 1 removed, got %d", result.RemovedCount)
		}

		got, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if got.Spent != 850 {
			t.Errorf("expected spent 850 after dedup, got %d", got.Spent)
		}
	})

	t.Run("no_duplicates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		createExpense(t, svc, user.ID, "Coffee", "Starbucks", 850)
		createExpense(t, svc, user.ID, "Dinner", "La Trattoria", 4200)

		result, err := svc.RemoveDuplicates(user.ID)
		testutil.AssertNoError(t, err)
		if result.RemovedCount != 0 {
			t.Errorf("expected nothing removed, got %d", result.RemovedCount)
		}
	})
}

func TestFixTransferNames(t *testing.T) {
	createTransfer := func(t *testing.T, db *gorm.DB, userID, sender, receiver string) *models.Transaction {
		t.Helper()
		tx := &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionTypeTransfer,
			Amount:      5000,
			Currency:    "EUR",
			Description: "Transfer",
			Sender:      sender,
			Receiver:    receiver,
			Date:        time.Now(),
		}
		if err := db.Create(tx).Error; err != nil {
			t.Fatalf("failed to create transfer: %v", err)
		}
		return tx
	}

	t.Run("fills_unknown_parties", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		missing := createTransfer(t, db, user.ID, "", "Jane Roe")
		unknown := createTransfer(t, db, user.ID, "Jane Roe", "Unknown")
		complete := createTransfer(t, db, user.ID, "Jane Roe", "John Smith")

		updated, err := svc.FixTransferNames(user.ID, "Alex Carter")
		testutil.AssertNoError(t, err)
		if updated != 2 {
			t.Errorf("expected 2 transfers updated, got %d", updated)
		}

		got, err := svc.GetTransactionByID(user.ID, missing.ID)
		testutil.AssertNoError(t, err)
		if got.Sender != "Alex Carter" {
			t.Errorf("expected sender filled, got %q", got.Sender)
		}

		got, err = svc.GetTransactionByID(user.ID, unknown.ID)
		testutil.AssertNoError(t, err)
		if got.Receiver != "Alex Carter" {
			t.Errorf("expected receiver filled, got %q", got.Receiver)
		}

		got, err = svc.GetTransactionByID(user.ID, complete.ID)
		testutil.AssertNoError(t, err)
		if got.Sender != "Jane Roe" || got.Receiver != "John Smith" {
			t.Error("expected complete transfer untouched")
		}
	})

	t.Run("empty_name_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.FixTransferNames(user.ID, "  ")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
