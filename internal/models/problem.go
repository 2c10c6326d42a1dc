package models

import "time"

// ProblemStatus enumerates the lifecycle states of a posted problem.
const (
	ProblemStatusOpen   = "open"
	ProblemStatusClosed = "closed"
)

// Problem is a challenge posted by an organization. The evaluation engine
// treats it as read-only: lifecycle and content are owned by the publishing
// organization.
type Problem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerID      uint      `gorm:"not null;index" json:"owner_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Domain       string    `gorm:"size:128" json:"domain"`
	Difficulty   string    `gorm:"size:32" json:"difficulty"`
	Objectives   string    `gorm:"type:text" json:"objectives"`
	Requirements string    `gorm:"type:text" json:"requirements"`
	RewardPoints int       `gorm:"not null;default:0" json:"reward_points"`
	Status       string    `gorm:"size:32;not null;default:open" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsOpen reports whether the problem still accepts submissions.
func (p Problem) IsOpen() bool {
	return p.Status == ProblemStatusOpen
}
