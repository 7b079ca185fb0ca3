package models

import "time"

// Goal represents a savings goal. CurrentAmount is incremented only by
// recorded contributions.
type Goal struct {
	Base
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Title         string    `gorm:"not null" json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	TargetAmount  int64     `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount int64     `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	StartDate     time.Time `gorm:"not null" json:"start_date"`
	EndDate       time.Time `gorm:"not null" json:"end_date"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
}

// Contribution records a single payment toward a goal.
type Contribution struct {
	Base
	GoalID string    `gorm:"type:uuid;not null;index" json:"goal_id"`
	UserID string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount int64     `gorm:"type:bigint;not null" json:"amount"`
	Date   time.Time `gorm:"not null" json:"date"`
}
