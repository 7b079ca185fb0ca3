package services

import (
	"gorm.io/gorm"

	apperrors "coinwise/internal/errors"
	"coinwise/internal/logger"
	"coinwise/internal/models"
)

// ledgerService keeps budget spent/remaining totals consistent with the
// expense transactions linked to them. Only expenses participate in budget
// tracking; a transaction links to every budget of the same user whose
// category matches and whose window contains the transaction date.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// LinkTransaction links an expense to all matching budgets and adds its
// amount to their spent totals. Non-expense transactions are ignored.
func (s *ledgerService) LinkTransaction(tx *gorm.DB, t *models.Transaction) error {
	if t.Type != models.TransactionTypeExpense {
		return nil
	}

	budgets, err := s.matchingBudgets(tx, t)
	if err != nil {
		return err
	}
	if len(budgets) == 0 {
		return nil
	}

	for i := range budgets {
		b := &budgets[i]
		link := &models.BudgetTransaction{
			BudgetID:      b.ID,
			TransactionID: t.ID,
		}
		if err := tx.Create(link).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.applySpentDelta(tx, b, t.Amount); err != nil {
			return err
		}
	}

	logger.Get().Infow("linked transaction to budgets",
		"transaction_id", t.ID,
		"budget_count", len(budgets),
	)
	return nil
}

// UnlinkOnDelete removes a transaction's budget links and subtracts its
// amount from the affected budgets.
func (s *ledgerService) UnlinkOnDelete(tx *gorm.DB, t *models.Transaction) error {
	budgets, err := s.linkedBudgets(tx, t.ID)
	if err != nil {
		return err
	}

	for i := range budgets {
		if err := s.applySpentDelta(tx, &budgets[i], -t.Amount); err != nil {
			return err
		}
	}

	if err := tx.Where("transaction_id = ?", t.ID).
		Delete(&models.BudgetTransaction{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ReconcileOnEdit adjusts budget totals after a transaction edit. A change
// of category or date relinks the transaction from scratch since a different
// set of budgets may now match. A pure amount change only shifts the totals
// of the already linked budgets.
func (s *ledgerService) ReconcileOnEdit(tx *gorm.DB, old, updated *models.Transaction) error {
	categoryChanged := old.Category != updated.Category
	dateChanged := !old.Date.Equal(updated.Date)
	typeChanged := old.Type != updated.Type
	amountChanged := old.Amount != updated.Amount

	if categoryChanged || dateChanged || typeChanged {
		if err := s.UnlinkOnDelete(tx, old); err != nil {
			return err
		}
		return s.LinkTransaction(tx, updated)
	}

	if !amountChanged {
		return nil
	}

	budgets, err := s.linkedBudgets(tx, old.ID)
	if err != nil {
		return err
	}
	delta := updated.Amount - old.Amount
	for i := range budgets {
		if err := s.applySpentDelta(tx, &budgets[i], delta); err != nil {
			return err
		}
	}
	return nil
}

// LinkBatch links a set of freshly inserted transactions to the user's
// budgets in one pass and returns the number of links created.
func (s *ledgerService) LinkBatch(tx *gorm.DB, userID string, transactionIDs []string) (int, error) {
	if len(transactionIDs) == 0 {
		return 0, nil
	}

	var txs []models.Transaction
	if err := tx.Where("user_id = ? AND id IN ?", userID, transactionIDs).
		Find(&txs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	linked := 0
	for i := range txs {
		if txs[i].Type != models.TransactionTypeExpense {
			continue
		}
		budgets, err := s.matchingBudgets(tx, &txs[i])
		if err != nil {
			return linked, err
		}
		for j := range budgets {
			link := &models.BudgetTransaction{
				BudgetID:      budgets[j].ID,
				TransactionID: txs[i].ID,
			}
			if err := tx.Create(link).Error; err != nil {
				return linked, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := s.applySpentDelta(tx, &budgets[j], txs[i].Amount); err != nil {
				return linked, err
			}
			linked++
		}
	}
	return linked, nil
}

// matchingBudgets returns the user's budgets whose category matches the
// transaction and whose window contains the transaction date.
func (s *ledgerService) matchingBudgets(tx *gorm.DB, t *models.Transaction) ([]models.Budget, error) {
	var budgets []models.Budget
	err := tx.Where("user_id = ? AND category = ? AND start_date <= ? AND end_date >= ?",
		t.UserID, t.Category, t.Date, t.Date).
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// linkedBudgets returns the budgets currently linked to a transaction.
func (s *ledgerService) linkedBudgets(tx *gorm.DB, transactionID string) ([]models.Budget, error) {
	var budgets []models.Budget
	err := tx.
		Joins("JOIN budget_transactions ON budget_transactions.budget_id = budgets.id").
		Where("budget_transactions.transaction_id = ? AND budget_transactions.deleted_at IS NULL", transactionID).
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// applySpentDelta shifts a budget's spent total by delta, flooring at zero,
// and recomputes the remaining amount.
func (s *ledgerService) applySpentDelta(tx *gorm.DB, b *models.Budget, delta int64) error {
	spent := b.Spent + delta
	if spent < 0 {
		spent = 0
	}
	b.Spent = spent
	remaining := b.Amount - spent
	if remaining < 0 {
		remaining = 0
	}
	b.Remaining = remaining

	err := tx.Model(&models.Budget{}).Where("id = ?", b.ID).Updates(map[string]any{
		"spent":     b.Spent,
		"remaining": b.Remaining,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
