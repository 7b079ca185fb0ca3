package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction represents a financial transaction in the system.
// Amount is stored in minor currency units (cents). Date carries only
// the calendar date; the time component is always midnight UTC.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Currency    string          `gorm:"size:8" json:"currency,omitempty"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`

	// Expense-only semantics
	Merchant string `json:"merchant,omitempty"`

	// Transfer-only semantics
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
}
