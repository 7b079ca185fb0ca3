package dedup

import (
	"coinwise/internal/models"
)

// IsDuplicate reports whether two transactions describe the same real-world
// event. The type, amount, and calendar date must match exactly, and every
// descriptive field relevant to the type must clear the threshold on its
// own: an identical description does not rescue a mismatched merchant.
func IsDuplicate(a, b *models.Transaction, threshold float64) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Amount != b.Amount {
		return false
	}
	ay, am, ad := a.Date.Date()
	by, bm, bd := b.Date.Date()
	if ay != by || am != bm || ad != bd {
		return false
	}

	pairs, ok := comparedFields(a, b)
	if !ok {
		return false
	}
	for _, p := range pairs {
		if Ratio(p.a, p.b) < threshold {
			return false
		}
	}
	return true
}

type fieldPair struct {
	a, b string
}

// comparedFields lists the per-type field pairs that must each pass the
// similarity check. Expenses compare description and merchant, transfers
// compare description and both parties, income and deposits compare the
// description alone. Any other type is never a duplicate.
func comparedFields(a, b *models.Transaction) ([]fieldPair, bool) {
	switch a.Type {
	case models.TransactionTypeExpense:
		return []fieldPair{
			{a.Description, b.Description},
			{a.Merchant, b.Merchant},
		}, true
	case models.TransactionTypeIncome, models.TransactionTypeDeposit:
		return []fieldPair{
			{a.Description, b.Description},
		}, true
	case models.TransactionTypeTransfer:
		return []fieldPair{
			{a.Description, b.Description},
			{a.Sender, b.Sender},
			{a.Receiver, b.Receiver},
		}, true
	}
	return nil, false
}

// FindDuplicates evaluates every unordered pair of transactions and returns
// the later member of each duplicate pair, deduplicated. A transaction
// already reported as a duplicate still participates as the earlier member
// of later pairs, so in a chain a~b, b~c with a and c dissimilar, both b
// and c are reported and only a survives.
func FindDuplicates(txs []models.Transaction, threshold float64) []models.Transaction {
	var dupes []models.Transaction
	reported := make(map[string]bool, len(txs))

	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			if reported[txs[j].ID] {
				continue
			}
			if IsDuplicate(&txs[i], &txs[j], threshold) {
				reported[txs[j].ID] = true
				dupes = append(dupes, txs[j])
			}
		}
	}
	return dupes
}
