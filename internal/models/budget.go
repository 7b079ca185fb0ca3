package models

import "time"

// RecurringFrequency represents how often a recurring budget rolls over
type RecurringFrequency string

const (
	FrequencyDaily   RecurringFrequency = "daily"
	FrequencyWeekly  RecurringFrequency = "weekly"
	FrequencyMonthly RecurringFrequency = "monthly"
)

// Budget represents a spending ceiling for a single category over an
// inclusive [StartDate, EndDate] window. Spent and Remaining are derived
// caches maintained by the ledger: Spent equals the sum of amounts of all
// transactions currently linked to the budget.
type Budget struct {
	Base
	UserID             string             `gorm:"type:uuid;not null;index" json:"user_id"`
	Title              string             `gorm:"not null" json:"title"`
	Category           string             `gorm:"not null;index" json:"category"`
	Amount             int64              `gorm:"type:bigint;not null" json:"amount"`
	Spent              int64              `gorm:"type:bigint;not null;default:0" json:"spent"`
	Remaining          int64              `gorm:"type:bigint;not null;default:0" json:"remaining"`
	StartDate          time.Time          `gorm:"not null" json:"start_date"`
	EndDate            time.Time          `gorm:"not null" json:"end_date"`
	Description        string             `json:"description,omitempty"`
	IsRecurring        bool               `gorm:"default:false" json:"is_recurring"`
	RecurringFrequency RecurringFrequency `json:"recurring_frequency,omitempty"`

	NotificationsEnabled   bool    `gorm:"default:false" json:"notifications_enabled"`
	NotificationsThreshold float64 `gorm:"default:90" json:"notifications_threshold"`
}

// ContainsDate reports whether d falls inside the budget's inclusive window.
func (b *Budget) ContainsDate(d time.Time) bool {
	return !d.Before(b.StartDate) && !d.After(b.EndDate)
}
