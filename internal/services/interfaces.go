package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coinwise/internal/models"
	"coinwise/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdateProfile(userID, firstName, lastName string) (*models.User, error)
}

// TransactionInput holds the writable fields of a transaction.
type TransactionInput struct {
	Type        models.TransactionType
	Amount      int64
	Date        time.Time
	Currency    string
	Category    string
	Description string
	Merchant    string
	Sender      string
	Receiver    string
}

// TransactionFilter holds optional filter and sort parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Category  *string
	MinAmount *int64
	MaxAmount *int64
	SortBy    string // "date" or "amount"
	SortOrder string // "asc" or "desc"
}

// DeduplicationResult reports the outcome of a duplicate removal run.
type DeduplicationResult struct {
	RemovedCount int      `json:"removed_count"`
	RemovedIDs   []string `json:"removed_ids"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, input TransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	RemoveDuplicates(userID string) (*DeduplicationResult, error)
	FixTransferNames(userID, fullName string) (int, error)
}

// LedgerServicer keeps budget totals consistent with the transactions linked
// to them. All methods operate inside the caller's database transaction.
type LedgerServicer interface {
	LinkTransaction(tx *gorm.DB, t *models.Transaction) error
	UnlinkOnDelete(tx *gorm.DB, t *models.Transaction) error
	ReconcileOnEdit(tx *gorm.DB, old, updated *models.Transaction) error
	LinkBatch(tx *gorm.DB, userID string, transactionIDs []string) (int, error)
}

// BudgetInput holds the writable fields of a budget.
type BudgetInput struct {
	Title                  string
	Category               string
	Description            string
	Amount                 int64
	StartDate              time.Time
	EndDate                time.Time
	IsRecurring            bool
	RecurringFrequency     models.RecurringFrequency
	NotificationsEnabled   bool
	NotificationsThreshold float64
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, input BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, input BudgetInput) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	RolloverIfExpired(budget *models.Budget, today time.Time) (bool, error)
}

// GoalInput holds the writable fields of a financial goal.
type GoalInput struct {
	Title        string
	Description  string
	Category     string
	TargetAmount int64
	StartDate    time.Time
	EndDate      time.Time
	IsActive     bool
}

// GoalServicer defines the contract for goal-related business logic.
type GoalServicer interface {
	CreateGoal(userID string, input GoalInput) (*models.Goal, error)
	GetUserGoals(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	GetGoalByID(userID, goalID string) (*models.Goal, error)
	UpdateGoal(userID, goalID string, input GoalInput) (*models.Goal, error)
	DeleteGoal(userID, goalID string) error
	AddContribution(userID, goalID string, amount int64, date time.Time) (*models.Contribution, error)
	GetGoalContributions(userID, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error)
	DeleteContribution(userID, goalID, contributionID string) error
}

// StatsServicer computes aggregate statistics over a user's transactions,
// budgets, and goals. Monetary values in the returned DTOs are in whole
// currency units.
type StatsServicer interface {
	Overview(userID string, from, to *time.Time) (*StatsOverview, error)
	ExpenseStats(userID string, from, to *time.Time, granularity string) (*ExpenseStats, error)
	IncomeStats(userID, fullName string, from, to *time.Time, granularity string) (*IncomeStats, error)
	TransferStats(userID, fullName string, from, to *time.Time) (*TransferStats, error)
	DepositStats(userID string, from, to *time.Time) (*DepositStats, error)
	BudgetStats(userID string, from, to *time.Time) (*BudgetStats, error)
	GoalStats(userID string) (*GoalStats, error)
	MonthSummary(userID, fullName string) (*PeriodSummary, error)
	HistorySummary(userID, fullName string) (*HistorySummary, error)
}

// IngestPublisher enqueues statement uploads for asynchronous processing.
type IngestPublisher interface {
	PublishIngest(ctx context.Context, uploadID string) error
}

// IngestServicer runs uploaded bank statements through the parsing pipeline
// and stores the extracted transactions.
type IngestServicer interface {
	SubmitStatement(ctx context.Context, userID, text string) (*models.StatementUpload, error)
	ProcessUpload(ctx context.Context, uploadID string) error
	GetUpload(userID, uploadID string) (*models.StatementUpload, error)
	GetUserUploads(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.StatementUpload], error)
}

// AuditServicer records mutating actions for traceability.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
