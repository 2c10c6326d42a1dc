package models

import "time"

// RewardEntry records points credited to a submitter for an approved
// solution. SolutionID is unique so a credit can be replayed safely.
type RewardEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SolutionID uint      `gorm:"not null;uniqueIndex" json:"solution_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Points     int       `gorm:"not null" json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}
