package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "coinwise/internal/errors"
	"coinwise/internal/models"
)

// statsService computes aggregate statistics. It depends on the budget
// service so expired recurring budgets roll over lazily when their stats
// are requested.
type statsService struct {
	db      *gorm.DB
	budgets BudgetServicer
}

// NewStatsService creates a new StatsServicer.
func NewStatsService(db *gorm.DB, budgets BudgetServicer) StatsServicer {
	return &statsService{db: db, budgets: budgets}
}

// toUnits converts minor units (cents) to rounded whole currency units.
func toUnits(cents int64) int64 {
	return int64(math.Round(float64(cents) / 100))
}

// fetchTransactions loads a user's transactions constrained by an optional
// date range and type.
func (s *statsService) fetchTransactions(userID string, from, to *time.Time, txType *models.TransactionType) ([]models.Transaction, error) {
	q := s.db.Where("user_id = ?", userID)
	if txType != nil {
		q = q.Where("type = ?", *txType)
	}
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}

	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// trendBuckets groups transactions into monthly or daily buckets sorted
// by period.
func trendBuckets(txs []models.Transaction, granularity string) []TrendPoint {
	layout := "2006-01"
	if granularity == "daily" {
		layout = "2006-01-02"
	}

	type bucket struct {
		amount int64
		count  int
	}
	buckets := map[string]*bucket{}
	for i := range txs {
		period := txs[i].Date.Format(layout)
		b, ok := buckets[period]
		if !ok {
			b = &bucket{}
			buckets[period] = b
		}
		b.amount += txs[i].Amount
		b.count++
	}

	periods := make([]string, 0, len(buckets))
	for p := range buckets {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	trend := make([]TrendPoint, 0, len(periods))
	for _, p := range periods {
		trend = append(trend, TrendPoint{
			Period: p,
			Amount: toUnits(buckets[p].amount),
			Count:  buckets[p].count,
		})
	}
	return trend
}

// Overview summarizes all transaction activity in a date range.
func (s *statsService) Overview(userID string, from, to *time.Time) (*StatsOverview, error) {
	txs, err := s.fetchTransactions(userID, from, to, nil)
	if err != nil {
		return nil, err
	}

	var income, expenses, deposits int64
	for i := range txs {
		switch txs[i].Type {
		case models.TransactionTypeIncome:
			income += txs[i].Amount
		case models.TransactionTypeExpense:
			expenses += txs[i].Amount
		case models.TransactionTypeDeposit:
			deposits += txs[i].Amount
		}
	}

	return &StatsOverview{
		TotalIncome:       toUnits(income),
		TotalExpenses:     toUnits(expenses),
		TotalDeposits:     toUnits(deposits),
		Balance:           toUnits(income + deposits - expenses),
		NetCashFlow:       toUnits(income - expenses),
		TotalTransactions: len(txs),
	}, nil
}

// ExpenseStats computes the full expense statistics for a date range.
func (s *statsService) ExpenseStats(userID string, from, to *time.Time, granularity string) (*ExpenseStats, error) {
	expenseType := models.TransactionTypeExpense
	expenses, err := s.fetchTransactions(userID, from, to, &expenseType)
	if err != nil {
		return nil, err
	}

	if len(expenses) == 0 {
		return &ExpenseStats{
			Top5Expenses:          []TransactionSummary{},
			TopMerchants:          []MerchantStats{},
			TopCategories:         []CategoryStats{},
			Trend:                 []TrendPoint{},
			UncategorizedExpenses: []TransactionSummary{},
		}, nil
	}

	var total, highest, lowest int64
	lowest = expenses[0].Amount
	for i := range expenses {
		a := expenses[i].Amount
		total += a
		if a > highest {
			highest = a
		}
		if a < lowest {
			lowest = a
		}
	}

	// Top 5 individual expenses by amount.
	byAmount := make([]models.Transaction, len(expenses))
	copy(byAmount, expenses)
	sort.SliceStable(byAmount, func(i, j int) bool { return byAmount[i].Amount > byAmount[j].Amount })
	topN := byAmount
	if len(topN) > 5 {
		topN = topN[:5]
	}
	top5 := make([]TransactionSummary, 0, len(topN))
	for i := range topN {
		top5 = append(top5, summarize(&topN[i]))
	}

	// Merchant aggregation; expenses without a merchant are excluded.
	type agg struct {
		amount int64
		count  int
		txs    []*models.Transaction
	}
	merchants := map[string]*agg{}
	categories := map[string]*agg{}
	for i := range expenses {
		merchant := expenses[i].Merchant
		if merchant == "" {
			merchant = "Unknown"
		}
		m, ok := merchants[merchant]
		if !ok {
			m = &agg{}
			merchants[merchant] = m
		}
		m.amount += expenses[i].Amount
		m.count++

		category := expenses[i].Category
		if category == "" {
			category = "Other"
		}
		c, ok := categories[category]
		if !ok {
			c = &agg{}
			categories[category] = c
		}
		c.amount += expenses[i].Amount
		c.count++
		c.txs = append(c.txs, &expenses[i])
	}

	topMerchants := make([]MerchantStats, 0, len(merchants))
	for name, m := range merchants {
		if name == "Unknown" {
			continue
		}
		topMerchants = append(topMerchants, MerchantStats{
			MerchantName:             name,
			TotalSpent:               toUnits(m.amount),
			TotalTransactions:        m.count,
			AverageTransactionAmount: toUnits(m.amount / int64(m.count)),
		})
	}
	sort.SliceStable(topMerchants, func(i, j int) bool { return topMerchants[i].TotalSpent > topMerchants[j].TotalSpent })
	if len(topMerchants) > 10 {
		topMerchants = topMerchants[:10]
	}

	topCategories := make([]CategoryStats, 0, len(categories))
	for name, c := range categories {
		sort.SliceStable(c.txs, func(i, j int) bool { return c.txs[i].Amount > c.txs[j].Amount })
		topTxs := c.txs
		if len(topTxs) > 3 {
			topTxs = topTxs[:3]
		}
		topSummaries := make([]TransactionSummary, 0, len(topTxs))
		for _, t := range topTxs {
			topSummaries = append(topSummaries, summarize(t))
		}

		percentage := float64(c.amount) / float64(total) * 100
		topCategories = append(topCategories, CategoryStats{
			Category:                 name,
			TotalSpent:               toUnits(c.amount),
			TotalTransactions:        c.count,
			AverageTransactionAmount: toUnits(c.amount / int64(c.count)),
			PercentageOfTotal:        int64(math.Round(percentage)),
			TopTransactions:          topSummaries,
		})
	}
	sort.SliceStable(topCategories, func(i, j int) bool { return topCategories[i].TotalSpent > topCategories[j].TotalSpent })

	trend := trendBuckets(expenses, granularity)
	var averagePerPeriod int64
	if len(trend) > 0 {
		averagePerPeriod = toUnits(total / int64(len(trend)))
	}

	uncategorized := []TransactionSummary{}
	for i := range expenses {
		cat := expenses[i].Category
		if cat == "" || strings.EqualFold(cat, "uncategorized") {
			uncategorized = append(uncategorized, summarize(&expenses[i]))
		}
	}

	return &ExpenseStats{
		TotalExpenses:         toUnits(total),
		AverageExpense:        toUnits(total / int64(len(expenses))),
		HighestExpense:        toUnits(highest),
		LowestExpense:         toUnits(lowest),
		Top5Expenses:          top5,
		TopMerchants:          topMerchants,
		TopCategories:         topCategories,
		Trend:                 trend,
		AveragePerPeriod:      averagePerPeriod,
		UncategorizedExpenses: uncategorized,
	}, nil
}

// IncomeStats computes income statistics. Income covers income transactions,
// deposits, and transfers received by the user. The three transaction sets
// are fetched concurrently.
func (s *statsService) IncomeStats(userID, fullName string, from, to *time.Time, granularity string) (*IncomeStats, error) {
	var incomeTxs, depositTxs, transferTxs []models.Transaction

	var g errgroup.Group
	g.Go(func() error {
		t := models.TransactionTypeIncome
		var err error
		incomeTxs, err = s.fetchTransactions(userID, from, to, &t)
		return err
	})
	g.Go(func() error {
		t := models.TransactionTypeDeposit
		var err error
		depositTxs, err = s.fetchTransactions(userID, from, to, &t)
		return err
	})
	g.Go(func() error {
		t := models.TransactionTypeTransfer
		var err error
		transferTxs, err = s.fetchTransactions(userID, from, to, &t)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	received := receivedTransfers(transferTxs, fullName)

	if len(incomeTxs) == 0 && len(depositTxs) == 0 && len(received) == 0 {
		return &IncomeStats{Trend: []TrendPoint{}}, nil
	}

	all := make([]models.Transaction, 0, len(incomeTxs)+len(depositTxs)+len(received))
	all = append(all, incomeTxs...)
	all = append(all, depositTxs...)
	all = append(all, received...)

	var total, highest, lowest int64
	lowest = all[0].Amount
	for i := range all {
		a := all[i].Amount
		total += a
		if a > highest {
			highest = a
		}
		if a < lowest {
			lowest = a
		}
	}

	trend := trendBuckets(incomeTxs, granularity)
	var averagePerPeriod int64
	if len(trend) > 0 {
		averagePerPeriod = toUnits(total / int64(len(trend)))
	}

	return &IncomeStats{
		TotalIncome:      toUnits(total),
		AverageIncome:    toUnits(total / int64(len(all))),
		HighestIncome:    toUnits(highest),
		LowestIncome:     toUnits(lowest),
		Trend:            trend,
		AveragePerPeriod: averagePerPeriod,
	}, nil
}

func receivedTransfers(transfers []models.Transaction, fullName string) []models.Transaction {
	var received []models.Transaction
	for i := range transfers {
		if strings.EqualFold(transfers[i].Receiver, fullName) {
			received = append(received, transfers[i])
		}
	}
	return received
}

// TransferStats computes transfer statistics from the user's perspective.
func (s *statsService) TransferStats(userID, fullName string, from, to *time.Time) (*TransferStats, error) {
	transferType := models.TransactionTypeTransfer
	transfers, err := s.fetchTransactions(userID, from, to, &transferType)
	if err != nil {
		return nil, err
	}

	if len(transfers) == 0 {
		return &TransferStats{
			Top5Transfers: []TransactionSummary{},
			Trend:         []TransferTrendPoint{},
		}, nil
	}

	var totalSent, totalReceived, total, highest, lowest int64
	lowest = transfers[0].Amount
	type flow struct{ sent, received int64 }
	periods := map[string]*flow{}

	for i := range transfers {
		t := &transfers[i]
		total += t.Amount
		if t.Amount > highest {
			highest = t.Amount
		}
		if t.Amount < lowest {
			lowest = t.Amount
		}

		period := t.Date.Format("2006-01")
		f, ok := periods[period]
		if !ok {
			f = &flow{}
			periods[period] = f
		}
		switch {
		case strings.EqualFold(t.Sender, fullName):
			totalSent += t.Amount
			f.sent += t.Amount
		case strings.EqualFold(t.Receiver, fullName):
			totalReceived += t.Amount
			f.received += t.Amount
		}
	}

	byAmount := make([]models.Transaction, len(transfers))
	copy(byAmount, transfers)
	sort.SliceStable(byAmount, func(i, j int) bool { return byAmount[i].Amount > byAmount[j].Amount })
	topN := byAmount
	if len(topN) > 5 {
		topN = topN[:5]
	}
	top5 := make([]TransactionSummary, 0, len(topN))
	for i := range topN {
		top5 = append(top5, summarize(&topN[i]))
	}

	keys := make([]string, 0, len(periods))
	for p := range periods {
		keys = append(keys, p)
	}
	sort.Strings(keys)
	trend := make([]TransferTrendPoint, 0, len(keys))
	for _, p := range keys {
		f := periods[p]
		trend = append(trend, TransferTrendPoint{
			Period:   p,
			Sent:     toUnits(f.sent),
			Received: toUnits(f.received),
			Net:      toUnits(f.received - f.sent),
		})
	}

	var averagePerPeriod int64
	if len(trend) > 0 {
		averagePerPeriod = toUnits((totalSent + totalReceived) / int64(len(trend)))
	}

	return &TransferStats{
		TotalTransfers:   len(transfers),
		TotalSent:        toUnits(totalSent),
		TotalReceived:    toUnits(totalReceived),
		NetFlow:          toUnits(totalReceived - totalSent),
		AverageTransfer:  toUnits(total / int64(len(transfers))),
		HighestTransfer:  toUnits(highest),
		LowestTransfer:   toUnits(lowest),
		Top5Transfers:    top5,
		Trend:            trend,
		AveragePerPeriod: averagePerPeriod,
	}, nil
}

// DepositStats computes deposit statistics for a date range.
func (s *statsService) DepositStats(userID string, from, to *time.Time) (*DepositStats, error) {
	depositType := models.TransactionTypeDeposit
	deposits, err := s.fetchTransactions(userID, from, to, &depositType)
	if err != nil {
		return nil, err
	}

	if len(deposits) == 0 {
		return &DepositStats{}, nil
	}

	var total, highest, lowest int64
	lowest = deposits[0].Amount
	for i := range deposits {
		a := deposits[i].Amount
		total += a
		if a > highest {
			highest = a
		}
		if a < lowest {
			lowest = a
		}
	}

	return &DepositStats{
		TotalDeposits:  toUnits(total),
		AverageDeposit: toUnits(total / int64(len(deposits))),
		HighestDeposit: toUnits(highest),
		LowestDeposit:  toUnits(lowest),
	}, nil
}

// BudgetStats computes per-budget progress. Expired recurring budgets are
// rolled over before their stats are computed; expired one-time budgets are
// reported separately. Spent totals are recomputed from linked transactions
// restricted to the optional date range.
func (s *statsService) BudgetStats(userID string, from, to *time.Time) (*BudgetStats, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_id = ?", userID).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &BudgetStats{
		Budgets:               []BudgetSummary{},
		ExpiredOneTimeBudgets: []BudgetSummary{},
	}
	if len(budgets) == 0 {
		return stats, nil
	}

	today := time.Now()
	for i := range budgets {
		b := &budgets[i]

		if b.IsRecurring {
			rolled, err := s.budgets.RolloverIfExpired(b, today)
			if err != nil {
				return nil, err
			}
			if rolled {
				stats.ExpiredRecurringCount++
			}
		} else if !b.EndDate.After(today) {
			stats.ExpiredOneTimeBudgets = append(stats.ExpiredOneTimeBudgets, budgetSummary(b, b.Spent))
		}

		spent, err := s.linkedSpent(b.ID, from, to)
		if err != nil {
			return nil, err
		}

		if spent > b.Amount {
			stats.OverBudgetCount++
		} else {
			stats.UnderBudgetCount++
		}
		stats.TotalBudget += toUnits(b.Amount)
		stats.TotalSpent += toUnits(spent)
		stats.Budgets = append(stats.Budgets, budgetSummary(b, spent))
	}

	stats.RemainingBudget = stats.TotalBudget - stats.TotalSpent
	if stats.TotalBudget > 0 {
		stats.BudgetUtilization = int64(math.Round(float64(stats.TotalSpent) / float64(stats.TotalBudget) * 100))
	}
	return stats, nil
}

// linkedSpent sums the amounts of transactions linked to a budget within
// an optional date range.
func (s *statsService) linkedSpent(budgetID string, from, to *time.Time) (int64, error) {
	q := s.db.Model(&models.Transaction{}).
		Joins("JOIN budget_transactions ON budget_transactions.transaction_id = transactions.id").
		Where("budget_transactions.budget_id = ? AND budget_transactions.deleted_at IS NULL", budgetID)
	if from != nil {
		q = q.Where("transactions.date >= ?", *from)
	}
	if to != nil {
		q = q.Where("transactions.date <= ?", *to)
	}

	var spent int64
	if err := q.Select("COALESCE(SUM(transactions.amount), 0)").Scan(&spent).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return spent, nil
}

func budgetSummary(b *models.Budget, spent int64) BudgetSummary {
	return BudgetSummary{
		ID:                     b.ID,
		Title:                  b.Title,
		Category:               b.Category,
		Amount:                 toUnits(b.Amount),
		Spent:                  toUnits(spent),
		Remaining:              toUnits(max(b.Amount-spent, 0)),
		StartDate:              b.StartDate.Format("2006-01-02"),
		EndDate:                b.EndDate.Format("2006-01-02"),
		Description:            b.Description,
		IsRecurring:            b.IsRecurring,
		RecurringFrequency:     string(b.RecurringFrequency),
		NotificationsEnabled:   b.NotificationsEnabled,
		NotificationsThreshold: b.NotificationsThreshold,
	}
}

// GoalStats computes progress statistics across the user's goals.
func (s *statsService) GoalStats(userID string) (*GoalStats, error) {
	var goals []models.Goal
	if err := s.db.Where("user_id = ?", userID).Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &GoalStats{TopGoals: []GoalProgress{}}
	if len(goals) == 0 {
		return stats, nil
	}

	now := time.Now()
	var totalContributions int64
	for i := range goals {
		g := &goals[i]
		stats.TotalGoals++
		if g.CurrentAmount >= g.TargetAmount {
			stats.CompletedGoals++
		}
		if g.IsActive {
			stats.ActiveGoals++
		}
		totalContributions += g.CurrentAmount

		daysLeft := int(g.EndDate.Sub(now).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}

		var progress float64
		if g.TargetAmount > 0 {
			progress = float64(g.CurrentAmount) / float64(g.TargetAmount) * 100
		}
		if progress > 100 {
			progress = 100
		}

		var recommendedDaily int64
		if remaining := g.TargetAmount - g.CurrentAmount; remaining > 0 && daysLeft > 0 {
			recommendedDaily = toUnits(remaining / int64(daysLeft))
		}

		stats.TopGoals = append(stats.TopGoals, GoalProgress{
			ID:                           g.ID,
			Title:                        g.Title,
			TargetAmount:                 toUnits(g.TargetAmount),
			CurrentAmount:                toUnits(g.CurrentAmount),
			Progress:                     int64(math.Round(progress)),
			DaysLeft:                     daysLeft,
			RecommendedDailyContribution: recommendedDaily,
		})
	}

	sort.SliceStable(stats.TopGoals, func(i, j int) bool {
		return stats.TopGoals[i].Progress > stats.TopGoals[j].Progress
	})
	if len(stats.TopGoals) > 10 {
		stats.TopGoals = stats.TopGoals[:10]
	}

	stats.TotalContributions = toUnits(totalContributions)
	stats.AverageContribution = toUnits(totalContributions / int64(len(goals)))
	return stats, nil
}

// MonthSummary returns income, expenses, and balance for the current month.
// Income counts income, deposits, and transfers received by the user.
func (s *statsService) MonthSummary(userID, fullName string) (*PeriodSummary, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totals, err := s.periodTotals(userID, fullName, &start, &now)
	if err != nil {
		return nil, err
	}

	return &PeriodSummary{
		TotalIncome:   totals.Income,
		TotalExpenses: totals.Expenses,
		Balance:       totals.Income - totals.Expenses,
	}, nil
}

// HistorySummary compares income and expenses over the last month, the last
// three months, and all time.
func (s *statsService) HistorySummary(userID, fullName string) (*HistorySummary, error) {
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endLastMonth := firstOfMonth.AddDate(0, 0, -1)
	startLastMonth := time.Date(endLastMonth.Year(), endLastMonth.Month(), 1, 0, 0, 0, 0, now.Location())
	threeMonthsBack := firstOfMonth.AddDate(0, 0, -90)
	startLast3 := time.Date(threeMonthsBack.Year(), threeMonthsBack.Month(), 1, 0, 0, 0, 0, now.Location())

	lastMonth, err := s.periodTotals(userID, fullName, &startLastMonth, &endLastMonth)
	if err != nil {
		return nil, err
	}
	last3, err := s.periodTotals(userID, fullName, &startLast3, &now)
	if err != nil {
		return nil, err
	}
	allTime, err := s.periodTotals(userID, fullName, nil, nil)
	if err != nil {
		return nil, err
	}

	return &HistorySummary{
		LastMonth:   *lastMonth,
		Last3Months: *last3,
		AllTime:     *allTime,
	}, nil
}

func (s *statsService) periodTotals(userID, fullName string, from, to *time.Time) (*PeriodTotals, error) {
	txs, err := s.fetchTransactions(userID, from, to, nil)
	if err != nil {
		return nil, err
	}

	var income, expenses int64
	for i := range txs {
		t := &txs[i]
		switch t.Type {
		case models.TransactionTypeIncome, models.TransactionTypeDeposit:
			income += t.Amount
		case models.TransactionTypeTransfer:
			if strings.EqualFold(t.Receiver, fullName) {
				income += t.Amount
			}
		case models.TransactionTypeExpense:
			expenses += t.Amount
		}
	}

	return &PeriodTotals{
		Income:   toUnits(income),
		Expenses: toUnits(expenses),
	}, nil
}
