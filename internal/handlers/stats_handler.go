package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "coinwise/internal/errors"
	"coinwise/internal/services"
)

// StatsHandler handles statistics requests. All endpoints accept an optional
// predefined range parameter; trend endpoints additionally accept a
// granularity of daily or monthly.
type StatsHandler struct {
	statsService services.StatsServicer
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService services.StatsServicer) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// statsQuery holds the shared query parameters of the stats endpoints.
// Explicit start_date/end_date bounds take precedence over the predefined
// range.
type statsQuery struct {
	Range       string `form:"range" binding:"omitempty,stats_range"`
	Granularity string `form:"granularity" binding:"omitempty,granularity"`
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
}

func (h *StatsHandler) bindQuery(c *gin.Context) (*statsQuery, *time.Time, *time.Time, error) {
	var query statsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return nil, nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if query.Granularity == "" {
		query.Granularity = "monthly"
	}

	from, to, err := services.ParseDateRange(query.Range, time.Now())
	if err != nil {
		return nil, nil, nil, err
	}
	if query.StartDate != "" {
		start, err := time.Parse("2006-01-02", query.StartDate)
		if err != nil {
			return nil, nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date must be YYYY-MM-DD")
		}
		from = &start
	}
	if query.EndDate != "" {
		end, err := time.Parse("2006-01-02", query.EndDate)
		if err != nil {
			return nil, nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must be YYYY-MM-DD")
		}
		to = &end
	}
	return &query, from, to, nil
}

// GetOverview returns a summary of all transaction activity.
// @Summary     Get stats overview
// @Description Get total income, expenses, deposits, and balance for a date range
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       range      query string false "Predefined range (last_6_months/last_3_months/last_month/this_month/this_year)"
// @Param       start_date query string false "Explicit lower bound (YYYY-MM-DD), overrides range"
// @Param       end_date   query string false "Explicit upper bound (YYYY-MM-DD), overrides range"
// @Success     200 {object} services.StatsOverview "Overview"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/overview [get]
func (h *StatsHandler) GetOverview(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	_, from, to, err := h.bindQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.statsService.Overview(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetExpenseStats returns expense statistics.
// @Summary     Get expense stats
// @Description Get expense totals, top merchants, categories, and trend
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       range       query string false "Predefined range"
// @Param       start_date  query string false "Explicit lower bound (YYYY-MM-DD), overrides range"
// @Param       end_date    query string false "Explicit upper bound (YYYY-MM-DD), overrides range"
// @Param       granularity query string false "Trend granularity (daily/monthly, default monthly)"
// @Success     200 {object} services.ExpenseStats "Expense stats"
// @Failure     400 {object} ErrorResponse "Invalid parameters"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/expenses [get]
func (h *StatsHandler) GetExpenseStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	query, from, to, err := h.bindQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.ExpenseStats(userID, from, to, query.Granularity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetIncomeStats returns income statistics.
// @Summary     Get income stats
// @Description Get income totals and trend; income covers income, deposits, and received transfers
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       range       query string false "Predefined range"
// @Param       start_date  query string false "Explicit lower bound (YYYY-MM-DD), overrides range"
// @Param       end_date    query string false "Explicit upper bound (YYYY-MM-DD), overrides range"
// @Param       granularity query string false "Trend granularity (daily/monthly, default monthly)"
// @Success     200 {object} services.IncomeStats "Income stats"
// @Failure     400 {object} ErrorResponse "Invalid parameters"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/income [get]
func (h *StatsHandler) GetIncomeStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	query, from, to, err := h.bindQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.IncomeStats(userID, getFullName(c), from, to, query.Granularity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTransferStats returns transfer statistics.
// @Summary     Get transfer stats
// @Description Get sent/received transfer totals and monthly flow trend
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       range      query string false "Predefined range"
// @Param       start_date query string false "Explicit lower bound (YYYY-MM-DD), overrides range"
// @Param       end_date   query string false "Explicit upper bound (YYYY-MM-DD), overrides range"
// @Success     200 {object} services.TransferStats "Transfer stats"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/transfers [get]
func (h *StatsHandler) GetTransferStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	_, from, to, err := h.bindQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.TransferStats(userID, getFullName(c), from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDepositStats returns deposit statistics.
// @Summary     Get deposit stats
// @Description Get deposit totals for a date range
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       range      query string false "Predefined range"
// @Param       start_date query string false "Explicit lower bound (YYYY-MM-DD), overrides range"
// @Param       end_date   query string false "Explicit upper bound (YYYY-MM-DD), overrides range"
// @Success     200 {object} services.DepositStats "Deposit stats"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/deposits [get]
func (h *StatsHandler) GetDepositStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	_, from, to, err := h.bindQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.DepositStats(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetBudgetStats returns budget progress statistics.
// @Summary     Get budget stats
// @Description Get per-budget progress; expired recurring budgets roll over first
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       range      query string false "Predefined range"
// @Param       start_date query string false "Explicit lower bound (YYYY-MM-DD), overrides range"
// @Param       end_date   query string false "Explicit upper bound (YYYY-MM-DD), overrides range"
// @Success     200 {object} services.BudgetStats "Budget stats"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/budgets [get]
func (h *StatsHandler) GetBudgetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	_, from, to, err := h.bindQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.BudgetStats(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetGoalStats returns goal progress statistics.
// @Summary     Get goal stats
// @Description Get progress across all goals
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.GoalStats "Goal stats"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/goals [get]
func (h *StatsHandler) GetGoalStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.GoalStats(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMonthSummary returns income, expenses, and balance for the current month.
// @Summary     Get current month summary
// @Description Get income, expenses, and balance for the current month
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PeriodSummary "Month summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/month-summary [get]
func (h *StatsHandler) GetMonthSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.statsService.MonthSummary(userID, getFullName(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetHistorySummary compares income and expenses across standard periods.
// @Summary     Get history summary
// @Description Compare income and expenses over the last month, last three months, and all time
// @Tags        stats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.HistorySummary "History summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats/history [get]
func (h *StatsHandler) GetHistorySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.statsService.HistorySummary(userID, getFullName(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
