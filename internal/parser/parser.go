// Package parser extracts transactions from raw bank statement text.
// Statement text is anonymized before leaving the process and restored
// after parsing, so personal identifiers are never sent to the model.
package parser

import (
	"context"
	"strings"
)

// ParsedTransaction is a single transaction extracted from a statement.
// Amount is in major currency units as reported by the statement; callers
// convert to minor units before persisting.
type ParsedTransaction struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Merchant    string  `json:"merchant"`
	Sender      string  `json:"sender"`
	Receiver    string  `json:"receiver"`
}

// StatementParser extracts transactions from anonymized statement text.
type StatementParser interface {
	Parse(ctx context.Context, text string) ([]ParsedTransaction, error)
}

// statementKeywords are terms expected in genuine bank statement text.
var statementKeywords = []string{
	"statement", "balance", "account", "transaction",
	"iban", "debit", "credit", "payment", "transfer",
}

// minStatementLength is the shortest text accepted as a statement.
const minStatementLength = 100

// LooksLikeStatement applies a cheap keyword heuristic to reject text that is
// clearly not a bank statement before spending a model call on it.
func LooksLikeStatement(text string) bool {
	if len(text) < minStatementLength {
		return false
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range statementKeywords {
		if strings.Contains(lower, kw) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}
