package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "coinwise/internal/errors"
	"coinwise/internal/logger"
	"coinwise/internal/models"
	"coinwise/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget for a user.
func (s *budgetService) CreateBudget(userID string, input BudgetInput) (*models.Budget, error) {
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.Title == "" || input.Category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title and category are required")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}
	if input.IsRecurring {
		switch input.RecurringFrequency {
		case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
		default:
			return nil, apperrors.ErrInvalidFrequency
		}
	}

	threshold := input.NotificationsThreshold
	if threshold == 0 {
		threshold = 90
	}

	budget := &models.Budget{
		UserID:                 userID,
		Title:                  input.Title,
		Category:               input.Category,
		Description:            input.Description,
		Amount:                 input.Amount,
		Spent:                  0,
		Remaining:              input.Amount,
		StartDate:              input.StartDate,
		EndDate:                input.EndDate,
		IsRecurring:            input.IsRecurring,
		RecurringFrequency:     input.RecurringFrequency,
		NotificationsEnabled:   input.NotificationsEnabled,
		NotificationsThreshold: threshold,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// GetUserBudgets retrieves a paginated list of the user's budgets.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).
		Order("start_date DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID retrieves a budget by ID for a specific user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates a budget's writable fields. Spent is preserved and
// remaining recomputed against the possibly changed amount.
func (s *budgetService) UpdateBudget(userID, budgetID string, input BudgetInput) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}

	budget.Title = input.Title
	budget.Category = input.Category
	budget.Description = input.Description
	budget.Amount = input.Amount
	budget.Remaining = max(input.Amount-budget.Spent, 0)
	budget.StartDate = input.StartDate
	budget.EndDate = input.EndDate
	budget.IsRecurring = input.IsRecurring
	budget.RecurringFrequency = input.RecurringFrequency
	budget.NotificationsEnabled = input.NotificationsEnabled
	if input.NotificationsThreshold > 0 {
		budget.NotificationsThreshold = input.NotificationsThreshold
	}

	if err := s.db.Save(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// DeleteBudget deletes a budget and its transaction links.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).
			Delete(&models.BudgetTransaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RolloverIfExpired starts a fresh period for a recurring budget whose
// window has ended. The new period starts on the given day; its length is
// determined by the recurring frequency. Spent resets to zero and all
// transaction links are cleared. Returns true when a rollover happened.
func (s *budgetService) RolloverIfExpired(budget *models.Budget, today time.Time) (bool, error) {
	if !budget.IsRecurring {
		return false, nil
	}
	if budget.EndDate.After(truncateToDay(today)) {
		return false, nil
	}

	newStart := truncateToDay(today)
	var newEnd time.Time
	switch budget.RecurringFrequency {
	case models.FrequencyDaily:
		newEnd = newStart
	case models.FrequencyWeekly:
		newEnd = newStart.AddDate(0, 0, 6)
	case models.FrequencyMonthly:
		newEnd = addMonthClamped(newStart).AddDate(0, 0, -1)
	default:
		// Unknown frequency, leave the budget untouched.
		return false, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Budget{}).Where("id = ?", budget.ID).Updates(map[string]any{
			"start_date": newStart,
			"end_date":   newEnd,
			"spent":      0,
			"remaining":  budget.Amount,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("budget_id = ?", budget.ID).
			Delete(&models.BudgetTransaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	budget.StartDate = newStart
	budget.EndDate = newEnd
	budget.Spent = 0
	budget.Remaining = budget.Amount

	logger.Get().Infow("rolled over recurring budget",
		"budget_id", budget.ID,
		"frequency", budget.RecurringFrequency,
		"new_start", newStart.Format("2006-01-02"),
		"new_end", newEnd.Format("2006-01-02"),
	)
	return true, nil
}

// addMonthClamped advances t by one calendar month, clamping the day to the
// last day of the target month so Jan 31 maps to Feb 28/29 instead of
// normalizing into March.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, t.Location())
}

// truncateToDay strips the time-of-day component.
func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
