package models

import (
	"time"

	"gorm.io/datatypes"
)

// SolutionStatus enumerates possible solution states.
const (
	SolutionStatusPending  = "pending"
	SolutionStatusApproved = "approved"
	SolutionStatusRejected = "rejected"
)

// ApprovalThreshold is the minimum automatic score that approves a solution.
const ApprovalThreshold = 60.0

// Solution is a submitter's answer to a problem. At most one solution exists
// per (submitter, problem) pair, enforced by the composite unique index.
// Version guards read-modify-write cycles: every update must match the
// version it read, so a concurrent automatic and manual evaluation cannot
// silently overwrite each other's fields.
type Solution struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ProblemID     uint              `gorm:"not null;uniqueIndex:idx_solutions_submitter_problem" json:"problem_id"`
	SubmitterID   uint              `gorm:"not null;uniqueIndex:idx_solutions_submitter_problem" json:"submitter_id"`
	Text          string            `gorm:"type:text;not null" json:"text"`
	RepoLink      string            `gorm:"size:512" json:"repo_link"`
	DemoLink      string            `gorm:"size:512" json:"demo_link"`
	AIScore       *float64          `json:"ai_score"`
	AIFeedback    string            `gorm:"type:text" json:"ai_feedback"`
	AIRaw         datatypes.JSONMap `json:"ai_raw"`
	ManualScore   *float64          `json:"manual_score"`
	ManualNote    string            `gorm:"type:text" json:"manual_note"`
	FinalScore    *float64          `json:"final_score"`
	RewardGranted int               `gorm:"not null;default:0" json:"reward_granted"`
	Status        string            `gorm:"size:32;not null;default:pending" json:"status"`
	Version       int               `gorm:"not null;default:0" json:"-"`
	SubmittedAt   time.Time         `gorm:"autoCreateTime" json:"submitted_at"`
	EvaluatedAt   *time.Time        `json:"evaluated_at"`
	Problem       Problem           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// HasAutomaticScore reports whether the AI evaluator has scored the solution.
func (s Solution) HasAutomaticScore() bool {
	return s.AIScore != nil
}
