package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"coinwise/internal/dedup"
	apperrors "coinwise/internal/errors"
	"coinwise/internal/logger"
	"coinwise/internal/models"
	"coinwise/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db     *gorm.DB
	ledger LedgerServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, ledger LedgerServicer) TransactionServicer {
	return &transactionService{
		db:     db,
		ledger: ledger,
	}
}

// validateInput checks the type-specific field requirements of a transaction.
func validateInput(input *TransactionInput) error {
	if input.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	switch input.Type {
	case models.TransactionTypeExpense:
		if input.Category == "" || input.Merchant == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "expenses require a category and a merchant")
		}
	case models.TransactionTypeTransfer:
		if input.Sender == "" || input.Receiver == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "transfers require a sender and a receiver")
		}
	case models.TransactionTypeIncome, models.TransactionTypeDeposit:
	default:
		return apperrors.ErrInvalidTransactionType
	}

	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	return nil
}

// CreateTransaction creates a transaction and links it to matching budgets.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Type:        input.Type,
		Amount:      input.Amount,
		Date:        input.Date,
		Currency:    input.Currency,
		Category:    input.Category,
		Description: input.Description,
		Merchant:    input.Merchant,
		Sender:      input.Sender,
		Receiver:    input.Receiver,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.ledger.LinkTransaction(tx, transaction)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered, sorted list of the
// user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order(sortClause(filter)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

func sortClause(f TransactionFilter) string {
	column := "date"
	if f.SortBy == "amount" {
		column = "amount"
	}
	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	return column + " " + order
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies an edit and reconciles affected budget totals.
func (s *transactionService) UpdateTransaction(userID, transactionID string, input TransactionInput) (*models.Transaction, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	old := *transaction

	transaction.Type = input.Type
	transaction.Amount = input.Amount
	transaction.Date = input.Date
	transaction.Currency = input.Currency
	transaction.Category = input.Category
	transaction.Description = input.Description
	transaction.Merchant = input.Merchant
	transaction.Sender = input.Sender
	transaction.Receiver = input.Receiver

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.ledger.ReconcileOnEdit(tx, &old, transaction)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction deletes a transaction and releases its budget links.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.ledger.UnlinkOnDelete(tx, transaction); err != nil {
			return err
		}
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RemoveDuplicates scans all of the user's transactions and deletes near
// duplicates, keeping the first occurrence of each group. Budget totals
// are adjusted for every removed expense.
func (s *transactionService) RemoveDuplicates(userID string) (*DeduplicationResult, error) {
	var transactions []models.Transaction
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	duplicates := dedup.FindDuplicates(transactions, dedup.SimilarityThreshold)
	if len(duplicates) == 0 {
		return &DeduplicationResult{RemovedCount: 0, RemovedIDs: []string{}}, nil
	}

	removedIDs := make([]string, 0, len(duplicates))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range duplicates {
			if err := s.ledger.UnlinkOnDelete(tx, &duplicates[i]); err != nil {
				return err
			}
			if err := tx.Delete(&duplicates[i]).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			removedIDs = append(removedIDs, duplicates[i].ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("removed duplicate transactions",
		"user_id", userID,
		"count", len(removedIDs),
	)
	return &DeduplicationResult{RemovedCount: len(removedIDs), RemovedIDs: removedIDs}, nil
}

// FixTransferNames fills in missing or unknown sender/receiver fields on the
// user's transfers with the user's full name. Returns the number of
// transfers updated.
func (s *transactionService) FixTransferNames(userID, fullName string) (int, error) {
	if strings.TrimSpace(fullName) == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "user has no name set")
	}

	var transfers []models.Transaction
	if err := s.db.Where("user_id = ? AND type = ?", userID, models.TransactionTypeTransfer).
		Find(&transfers).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updated := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range transfers {
			t := &transfers[i]
			changes := map[string]any{}
			if isUnknownName(t.Sender) {
				changes["sender"] = fullName
			}
			if isUnknownName(t.Receiver) {
				changes["receiver"] = fullName
			}
			if len(changes) == 0 {
				continue
			}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", t.ID).
				Updates(changes).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func isUnknownName(s string) bool {
	return s == "" || strings.EqualFold(s, "unknown")
}
