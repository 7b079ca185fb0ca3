package dedup

import (
	"testing"
	"time"

	"coinwise/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expense(id, description, merchant string, amount int64, on time.Time) models.Transaction {
	tx := models.Transaction{
		Type:        models.TransactionTypeExpense,
		Amount:      amount,
		Date:        on,
		Description: description,
		Merchant:    merchant,
	}
	tx.ID = id
	return tx
}

func TestIsDuplicate(t *testing.T) {
	day := date(2024, 3, 15)

	t.Run("same expense is a duplicate", func(t *testing.T) {
		a := expense("a", "Morning coffee", "Starbucks", 550, day)
		b := expense("b", "Morning coffee", "Starbucks", 550, day)
		if !IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected duplicate")
		}
	})

	t.Run("slight description variation is still a duplicate", func(t *testing.T) {
		a := expense("a", "Morning coffee purchase", "Starbucks", 550, day)
		b := expense("b", "Morning cofee purchase", "Starbucks", 550, day)
		if !IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected duplicate")
		}
	})

	t.Run("different type is never a duplicate", func(t *testing.T) {
		a := expense("a", "Salary", "", 550, day)
		b := expense("b", "Salary", "", 550, day)
		b.Type = models.TransactionTypeIncome
		if IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected no duplicate across types")
		}
	})

	t.Run("unrecognized type is never a duplicate", func(t *testing.T) {
		a := expense("a", "Chargeback", "", 550, day)
		b := expense("b", "Chargeback", "", 550, day)
		a.Type = "refund"
		b.Type = "refund"
		if IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected no duplicate for unrecognized type")
		}
	})

	t.Run("one cent difference is not a duplicate", func(t *testing.T) {
		a := expense("a", "Morning coffee", "Starbucks", 550, day)
		b := expense("b", "Morning coffee", "Starbucks", 551, day)
		if IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected no duplicate for differing amounts")
		}
	})

	t.Run("different day is not a duplicate", func(t *testing.T) {
		a := expense("a", "Morning coffee", "Starbucks", 550, day)
		b := expense("b", "Morning coffee", "Starbucks", 550, day.AddDate(0, 0, 1))
		if IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected no duplicate across days")
		}
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		a := expense("a", "Morning coffee", "Starbucks", 550, day)
		b := expense("b", "Morning coffee", "Starbucks", 550, day.Add(14*time.Hour))
		if !IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected duplicate regardless of time of day")
		}
	})

	t.Run("each field must clear the threshold on its own", func(t *testing.T) {
		// A long identical description must not mask a mismatched merchant.
		a := expense("a", "Weekly groceries and household items", "Aldi", 4200, day)
		b := expense("b", "Weekly groceries and household items", "Rewe", 4200, day)
		if IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected no duplicate when merchants are unrelated")
		}
	})

	t.Run("different merchant breaks expense match", func(t *testing.T) {
		a := expense("a", "Coffee", "Starbucks Downtown Branch", 550, day)
		b := expense("b", "Coffee", "Local Roastery Espresso Bar", 550, day)
		if IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected no duplicate for different merchants")
		}
	})

	t.Run("transfer compares sender and receiver", func(t *testing.T) {
		a := models.Transaction{
			Type:        models.TransactionTypeTransfer,
			Amount:      10000,
			Date:        day,
			Description: "Rent share",
			Sender:      "Alice Smith",
			Receiver:    "Bob Jones",
		}
		a.ID = "a"
		b := a
		b.ID = "b"
		b.Receiver = "Charlotte Whitfield-Harrington"
		if IsDuplicate(&a, &b, SimilarityThreshold) {
			t.Error("expected no duplicate for different receivers")
		}

		c := a
		c.ID = "c"
		if !IsDuplicate(&a, &c, SimilarityThreshold) {
			t.Error("expected duplicate for identical transfer parties")
		}
	})
}

func TestFindDuplicates(t *testing.T) {
	day := date(2024, 3, 15)

	t.Run("keeps first occurrence of a group", func(t *testing.T) {
		txs := []models.Transaction{
			expense("a", "Morning coffee", "Starbucks", 550, day),
			expense("b", "Morning coffee", "Starbucks", 550, day),
			expense("c", "Morning coffee", "Starbucks", 550, day),
		}

		dupes := FindDuplicates(txs, SimilarityThreshold)
		if len(dupes) != 2 {
			t.Fatalf("expected 2 duplicates, got %d", len(dupes))
		}
		if dupes[0].ID != "b" || dupes[1].ID != "c" {
			t.Errorf("expected b and c reported, got %s and %s", dupes[0].ID, dupes[1].ID)
		}
	})

	t.Run("reported duplicates still pair with later transactions", func(t *testing.T) {
		// Descriptions drift one step at a time: a matches b and b matches c,
		// but a and c are too far apart. Both b and c must be reported.
		txs := []models.Transaction{
			expense("a", "monthly metro subscription", "OV", 9500, day),
			expense("b", "monthly metro subscription feb", "OV", 9500, day),
			expense("c", "monthly metro subscription feb 2024", "OV", 9500, day),
		}

		if IsDuplicate(&txs[0], &txs[2], SimilarityThreshold) {
			t.Fatal("fixture invalid: a and c must not match directly")
		}

		dupes := FindDuplicates(txs, SimilarityThreshold)
		if len(dupes) != 2 {
			t.Fatalf("expected 2 duplicates, got %d", len(dupes))
		}
		if dupes[0].ID != "b" || dupes[1].ID != "c" {
			t.Errorf("expected b and c reported, got %s and %s", dupes[0].ID, dupes[1].ID)
		}
	})

	t.Run("no duplicates in distinct transactions", func(t *testing.T) {
		txs := []models.Transaction{
			expense("a", "Morning coffee", "Starbucks", 550, day),
			expense("b", "Weekly groceries", "Whole Foods", 8230, day),
			expense("c", "Morning coffee", "Starbucks", 550, day.AddDate(0, 0, 2)),
		}

		if dupes := FindDuplicates(txs, SimilarityThreshold); len(dupes) != 0 {
			t.Errorf("expected no duplicates, got %d", len(dupes))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if dupes := FindDuplicates(nil, SimilarityThreshold); len(dupes) != 0 {
			t.Errorf("expected no duplicates, got %d", len(dupes))
		}
	})
}
