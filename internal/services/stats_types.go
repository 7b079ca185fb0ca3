package services

import (
	"time"

	apperrors "coinwise/internal/errors"
	"coinwise/internal/models"
)

// TransactionSummary is the transaction shape embedded in stats responses.
// Amounts are in whole currency units.
type TransactionSummary struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Merchant    string `json:"merchant,omitempty"`
	Sender      string `json:"sender,omitempty"`
	Receiver    string `json:"receiver,omitempty"`
	Date        string `json:"date"`
}

// TrendPoint is a single bucket in a spending or income trend.
type TrendPoint struct {
	Period string `json:"period"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
}

// TransferTrendPoint is a single bucket in a transfer trend.
type TransferTrendPoint struct {
	Period   string `json:"period"`
	Sent     int64  `json:"sent"`
	Received int64  `json:"received"`
	Net      int64  `json:"net"`
}

// MerchantStats aggregates spending at a single merchant.
type MerchantStats struct {
	MerchantName             string `json:"merchantName"`
	TotalSpent               int64  `json:"totalSpent"`
	TotalTransactions        int    `json:"totalTransactions"`
	AverageTransactionAmount int64  `json:"averageTransactionAmount"`
}

// CategoryStats aggregates spending in a single category.
type CategoryStats struct {
	Category                 string               `json:"category"`
	TotalSpent               int64                `json:"totalSpent"`
	TotalTransactions        int                  `json:"totalTransactions"`
	AverageTransactionAmount int64                `json:"averageTransactionAmount"`
	PercentageOfTotal        int64                `json:"percentageOfTotal"`
	TopTransactions          []TransactionSummary `json:"topTransactions"`
}

// StatsOverview summarizes all transaction activity in a date range.
type StatsOverview struct {
	TotalIncome       int64 `json:"totalIncome"`
	TotalExpenses     int64 `json:"totalExpenses"`
	TotalDeposits     int64 `json:"totalDeposits"`
	Balance           int64 `json:"balance"`
	NetCashFlow       int64 `json:"netCashFlow"`
	TotalTransactions int   `json:"totalTransactions"`
}

// ExpenseStats is the full expense statistics response.
type ExpenseStats struct {
	TotalExpenses         int64                `json:"totalExpenses"`
	AverageExpense        int64                `json:"averageExpense"`
	HighestExpense        int64                `json:"highestExpense"`
	LowestExpense         int64                `json:"lowestExpense"`
	Top5Expenses          []TransactionSummary `json:"top5Expenses"`
	TopMerchants          []MerchantStats      `json:"topMerchants"`
	TopCategories         []CategoryStats      `json:"topCategories"`
	Trend                 []TrendPoint         `json:"trend"`
	AveragePerPeriod      int64                `json:"averagePerPeriod"`
	UncategorizedExpenses []TransactionSummary `json:"uncategorizedExpenses"`
}

// IncomeStats is the full income statistics response. Income counts
// income transactions, deposits, and transfers received by the user.
type IncomeStats struct {
	TotalIncome      int64        `json:"totalIncome"`
	AverageIncome    int64        `json:"averageIncome"`
	HighestIncome    int64        `json:"highestIncome"`
	LowestIncome     int64        `json:"lowestIncome"`
	Trend            []TrendPoint `json:"trend"`
	AveragePerPeriod int64        `json:"averagePerPeriod"`
}

// TransferStats is the full transfer statistics response.
type TransferStats struct {
	TotalTransfers   int                  `json:"totalTransfers"`
	TotalSent        int64                `json:"totalSent"`
	TotalReceived    int64                `json:"totalReceived"`
	NetFlow          int64                `json:"netFlow"`
	AverageTransfer  int64                `json:"averageTransfer"`
	HighestTransfer  int64                `json:"highestTransfer"`
	LowestTransfer   int64                `json:"lowestTransfer"`
	Top5Transfers    []TransactionSummary `json:"top5Transfers"`
	Trend            []TransferTrendPoint `json:"trend"`
	AveragePerPeriod int64                `json:"averagePerPeriod"`
}

// DepositStats is the deposit statistics response.
type DepositStats struct {
	TotalDeposits  int64 `json:"totalDeposits"`
	AverageDeposit int64 `json:"averageDeposit"`
	HighestDeposit int64 `json:"highestDeposit"`
	LowestDeposit  int64 `json:"lowestDeposit"`
}

// BudgetSummary is the per-budget shape in the budget stats response.
type BudgetSummary struct {
	ID                     string  `json:"id"`
	Title                  string  `json:"title"`
	Category               string  `json:"category"`
	Amount                 int64   `json:"amount"`
	Spent                  int64   `json:"spent"`
	Remaining              int64   `json:"remaining"`
	StartDate              string  `json:"start_date"`
	EndDate                string  `json:"end_date"`
	Description            string  `json:"description,omitempty"`
	IsRecurring            bool    `json:"is_recurring"`
	RecurringFrequency     string  `json:"recurring_frequency,omitempty"`
	NotificationsEnabled   bool    `json:"notifications_enabled"`
	NotificationsThreshold float64 `json:"notifications_threshold"`
}

// BudgetStats is the budget statistics response.
type BudgetStats struct {
	TotalBudget           int64           `json:"totalBudget"`
	TotalSpent            int64           `json:"totalSpent"`
	RemainingBudget       int64           `json:"remainingBudget"`
	BudgetUtilization     int64           `json:"budgetUtilization"`
	OverBudgetCount       int             `json:"overBudgetCount"`
	UnderBudgetCount      int             `json:"underBudgetCount"`
	Budgets               []BudgetSummary `json:"budgets"`
	ExpiredRecurringCount int             `json:"expiredRecurringCount"`
	ExpiredOneTimeBudgets []BudgetSummary `json:"expiredOneTimeBudgets"`
}

// GoalProgress tracks progress toward a single goal.
type GoalProgress struct {
	ID                           string `json:"id"`
	Title                        string `json:"title"`
	TargetAmount                 int64  `json:"targetAmount"`
	CurrentAmount                int64  `json:"currentAmount"`
	Progress                     int64  `json:"progress"`
	DaysLeft                     int    `json:"daysLeft"`
	RecommendedDailyContribution int64  `json:"recommendedDailyContribution"`
}

// GoalStats is the goal statistics response.
type GoalStats struct {
	TotalGoals          int            `json:"totalGoals"`
	CompletedGoals      int            `json:"completedGoals"`
	ActiveGoals         int            `json:"activeGoals"`
	TotalContributions  int64          `json:"totalContributions"`
	AverageContribution int64          `json:"averageContribution"`
	TopGoals            []GoalProgress `json:"topGoals"`
}

// PeriodSummary holds income, expenses, and balance for a single period.
type PeriodSummary struct {
	TotalIncome   int64 `json:"totalIncome"`
	TotalExpenses int64 `json:"totalExpenses"`
	Balance       int64 `json:"balance"`
}

// HistorySummary compares income and expenses across standard periods.
type HistorySummary struct {
	LastMonth   PeriodTotals `json:"lastMonth"`
	Last3Months PeriodTotals `json:"last3Months"`
	AllTime     PeriodTotals `json:"allTime"`
}

// PeriodTotals holds the income and expense totals of one period.
type PeriodTotals struct {
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
}

// ParseDateRange resolves a predefined range name to a from/to date pair
// relative to today. An empty range name yields an unbounded range.
func ParseDateRange(rangeName string, now time.Time) (*time.Time, *time.Time, error) {
	if rangeName == "" {
		return nil, nil, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var from time.Time
	switch rangeName {
	case "last_6_months":
		from = today.AddDate(0, 0, -180)
	case "last_3_months":
		from = today.AddDate(0, 0, -90)
	case "last_month":
		from = today.AddDate(0, 0, -30)
	case "this_month":
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	case "this_year":
		from = time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
	default:
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid range parameter")
	}
	return &from, &today, nil
}

func summarize(t *models.Transaction) TransactionSummary {
	return TransactionSummary{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      toUnits(t.Amount),
		Currency:    t.Currency,
		Category:    t.Category,
		Description: t.Description,
		Merchant:    t.Merchant,
		Sender:      t.Sender,
		Receiver:    t.Receiver,
		Date:        t.Date.Format("2006-01-02"),
	}
}
