package models

// BudgetTransaction links one transaction to one budget. The ledger is the
// only writer: it creates a link when an expense lands inside a budget's
// window and destroys it on delete, relink, or rollover. The store itself
// does not enforce one-link-per-(budget,transaction).
type BudgetTransaction struct {
	Base
	BudgetID      string `gorm:"type:uuid;not null;index" json:"budget_id"`
	TransactionID string `gorm:"type:uuid;not null;index" json:"transaction_id"`
}
