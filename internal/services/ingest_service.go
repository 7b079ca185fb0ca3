package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"coinwise/internal/dedup"
	apperrors "coinwise/internal/errors"
	"coinwise/internal/logger"
	"coinwise/internal/models"
	"coinwise/internal/pagination"
	"coinwise/internal/parser"
)

// ingestService runs uploaded bank statements through the parsing pipeline.
// Statement text is anonymized before it reaches the parser and restored
// afterwards. When a publisher is configured, processing happens in a worker;
// otherwise the upload is processed inline.
type ingestService struct {
	db        *gorm.DB
	parser    parser.StatementParser
	ledger    LedgerServicer
	users     UserServicer
	publisher IngestPublisher
}

// NewIngestService creates a new IngestServicer. publisher may be nil, in
// which case uploads are processed synchronously.
func NewIngestService(db *gorm.DB, p parser.StatementParser, ledger LedgerServicer, users UserServicer, publisher IngestPublisher) IngestServicer {
	return &ingestService{
		db:        db,
		parser:    p,
		ledger:    ledger,
		users:     users,
		publisher: publisher,
	}
}

// SubmitStatement validates and stores an uploaded statement, then either
// queues it for a worker or processes it immediately.
func (s *ingestService) SubmitStatement(ctx context.Context, userID, text string) (*models.StatementUpload, error) {
	if len(text) < 100 {
		return nil, apperrors.ErrStatementTooShort
	}
	if !parser.LooksLikeStatement(text) {
		return nil, apperrors.ErrNotBankStatement
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	anonymized, entities := parser.Anonymize(text, user.FullName())
	entityJSON, err := json.Marshal(entities)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	upload := &models.StatementUpload{
		UserID:    userID,
		RawText:   anonymized,
		EntityMap: string(entityJSON),
		Status:    models.UploadStatusPending,
	}
	if err := s.db.Create(upload).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishIngest(ctx, upload.ID); err != nil {
			// The upload row is already persisted; fall back to inline
			// processing rather than losing it.
			logger.Get().Warnw("failed to publish ingest message, processing inline",
				"upload_id", upload.ID,
				"error", err,
			)
			if err := s.ProcessUpload(ctx, upload.ID); err != nil {
				return nil, err
			}
			return s.reload(upload.ID)
		}
		return upload, nil
	}

	if err := s.ProcessUpload(ctx, upload.ID); err != nil {
		return nil, err
	}
	return s.reload(upload.ID)
}

// ProcessUpload parses a stored statement and inserts the extracted
// transactions, skipping ones that duplicate existing transactions.
func (s *ingestService) ProcessUpload(ctx context.Context, uploadID string) error {
	var upload models.StatementUpload
	if err := s.db.Where("id = ?", uploadID).First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUploadNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.setStatus(&upload, models.UploadStatusProcessing, ""); err != nil {
		return err
	}

	parsed, err := s.parser.Parse(ctx, upload.RawText)
	if err != nil {
		failErr := apperrors.Wrap(apperrors.ErrStatementParseFail, err)
		if statusErr := s.setStatus(&upload, models.UploadStatusFailed, failErr.Message); statusErr != nil {
			return statusErr
		}
		return failErr
	}

	var entities parser.EntityMap
	if upload.EntityMap != "" {
		if err := json.Unmarshal([]byte(upload.EntityMap), &entities); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	parser.DeanonymizeTransactions(parsed, entities)

	inserted, duplicates, err := s.storeTransactions(upload.UserID, parsed)
	if err != nil {
		if statusErr := s.setStatus(&upload, models.UploadStatusFailed, "failed to store transactions"); statusErr != nil {
			return statusErr
		}
		return err
	}

	err = s.db.Model(&upload).Updates(map[string]any{
		"status":            models.UploadStatusCompleted,
		"error":             "",
		"transaction_count": len(inserted),
		"duplicate_count":   duplicates,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("processed statement upload",
		"upload_id", upload.ID,
		"inserted", len(inserted),
		"duplicates", duplicates,
	)
	return nil
}

// storeTransactions converts parsed transactions to models, drops ones that
// duplicate existing transactions, inserts the rest, and links them to
// budgets. Returns the inserted IDs and the number of duplicates skipped.
func (s *ingestService) storeTransactions(userID string, parsed []parser.ParsedTransaction) ([]string, int, error) {
	var existing []models.Transaction
	if err := s.db.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var toInsert []models.Transaction
	duplicates := 0
	for i := range parsed {
		candidate, err := toModel(userID, &parsed[i])
		if err != nil {
			// Skip rows the model produced with invalid type or date.
			logger.Get().Warnw("skipping unparseable statement row", "error", err)
			continue
		}

		isDup := false
		for j := range existing {
			if dedup.IsDuplicate(candidate, &existing[j], dedup.SimilarityThreshold) {
				isDup = true
				break
			}
		}
		if isDup {
			duplicates++
			continue
		}

		toInsert = append(toInsert, *candidate)
		existing = append(existing, *candidate)
	}

	if len(toInsert) == 0 {
		return []string{}, duplicates, nil
	}

	var ids []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&toInsert).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		ids = make([]string, 0, len(toInsert))
		for i := range toInsert {
			ids = append(ids, toInsert[i].ID)
		}
		_, err := s.ledger.LinkBatch(tx, userID, ids)
		return err
	})
	if err != nil {
		return nil, duplicates, err
	}
	return ids, duplicates, nil
}

// toModel converts a parsed statement row to a transaction model, converting
// major currency units to cents.
func toModel(userID string, p *parser.ParsedTransaction) (*models.Transaction, error) {
	txType := models.TransactionType(p.Type)
	switch txType {
	case models.TransactionTypeExpense, models.TransactionTypeIncome,
		models.TransactionTypeDeposit, models.TransactionTypeTransfer:
	default:
		return nil, apperrors.ErrInvalidTransactionType
	}

	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid transaction date")
	}

	currency := p.Currency
	if currency == "" {
		currency = "EUR"
	}

	return &models.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      int64(math.Round(math.Abs(p.Amount) * 100)),
		Date:        date,
		Currency:    currency,
		Category:    p.Category,
		Description: p.Description,
		Merchant:    p.Merchant,
		Sender:      p.Sender,
		Receiver:    p.Receiver,
	}, nil
}

// GetUpload retrieves an upload by ID for a specific user.
func (s *ingestService) GetUpload(userID, uploadID string) (*models.StatementUpload, error) {
	var upload models.StatementUpload
	if err := s.db.Where("id = ? AND user_id = ?", uploadID, userID).First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUploadNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &upload, nil
}

// GetUserUploads retrieves a paginated list of the user's uploads.
func (s *ingestService) GetUserUploads(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.StatementUpload], error) {
	page.Defaults()

	base := s.db.Model(&models.StatementUpload{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var uploads []models.StatementUpload
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&uploads).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(uploads, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *ingestService) setStatus(upload *models.StatementUpload, status models.UploadStatus, errMsg string) error {
	err := s.db.Model(upload).Updates(map[string]any{
		"status": status,
		"error":  errMsg,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	upload.Status = status
	upload.Error = errMsg
	return nil
}

func (s *ingestService) reload(uploadID string) (*models.StatementUpload, error) {
	var upload models.StatementUpload
	if err := s.db.Where("id = ?", uploadID).First(&upload).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &upload, nil
}
