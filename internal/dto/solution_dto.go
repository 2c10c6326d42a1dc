package dto

import (
	"time"

	"github.com/skillforge/arena-api/internal/models"
)

// SubmitSolutionRequest is the payload for submitting a solution to a problem.
type SubmitSolutionRequest struct {
	ProblemID uint   `json:"problem_id" validate:"required,gt=0"`
	Text      string `json:"text" validate:"required,min=100"`
	RepoLink  string `json:"repo_link" validate:"omitempty,url"`
	DemoLink  string `json:"demo_link" validate:"omitempty,url"`
}

// ManualEvaluationRequest carries an organization's manual score for a
// solution. Score is a pointer so an omitted field is rejected instead of
// being read as a deliberate zero.
type ManualEvaluationRequest struct {
	Score *float64 `json:"score" validate:"required,gte=0,lte=100"`
	Note  string   `json:"note"`
}

// SubmitOutcomeResponse reports the result of a submission, including the
// automatic evaluation when it completed. A pending status with no score
// means the scoring provider was unavailable and the solution awaits a later
// evaluation.
type SubmitOutcomeResponse struct {
	SolutionID    uint     `json:"solution_id"`
	Status        string   `json:"status"`
	Score         *float64 `json:"score,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
	RewardGranted int      `json:"reward_granted"`
}

// SolutionResponse represents a solution to API consumers.
type SolutionResponse struct {
	ID            uint                   `json:"id"`
	ProblemID     uint                   `json:"problem_id"`
	SubmitterID   uint                   `json:"submitter_id"`
	Text          string                 `json:"text"`
	RepoLink      string                 `json:"repo_link,omitempty"`
	DemoLink      string                 `json:"demo_link,omitempty"`
	AIScore       *float64               `json:"ai_score"`
	AIFeedback    string                 `json:"ai_feedback,omitempty"`
	AIRaw         map[string]interface{} `json:"ai_raw,omitempty"`
	ManualScore   *float64               `json:"manual_score"`
	ManualNote    string                 `json:"manual_note,omitempty"`
	FinalScore    *float64               `json:"final_score"`
	RewardGranted int                    `json:"reward_granted"`
	Status        string                 `json:"status"`
	SubmittedAt   string                 `json:"submitted_at"`
	EvaluatedAt   *string                `json:"evaluated_at,omitempty"`
	ProblemTitle  string                 `json:"problem_title,omitempty"`
}

// ManualEvaluationResponse reports the merged score after a manual evaluation.
type ManualEvaluationResponse struct {
	SolutionID  uint     `json:"solution_id"`
	ManualScore float64  `json:"manual_score"`
	FinalScore  *float64 `json:"final_score"`
	Status      string   `json:"status"`
}

// RewardBalanceResponse reports the caller's accumulated reward points.
type RewardBalanceResponse struct {
	UserID      uint `json:"user_id"`
	TotalPoints int  `json:"total_points"`
}

// NewSolutionResponse builds a response DTO from a model.
func NewSolutionResponse(solution models.Solution) SolutionResponse {
	response := SolutionResponse{
		ID:            solution.ID,
		ProblemID:     solution.ProblemID,
		SubmitterID:   solution.SubmitterID,
		Text:          solution.Text,
		RepoLink:      solution.RepoLink,
		DemoLink:      solution.DemoLink,
		AIScore:       solution.AIScore,
		AIFeedback:    solution.AIFeedback,
		ManualScore:   solution.ManualScore,
		ManualNote:    solution.ManualNote,
		FinalScore:    solution.FinalScore,
		RewardGranted: solution.RewardGranted,
		Status:        solution.Status,
		SubmittedAt:   solution.SubmittedAt.UTC().Format(time.RFC3339),
		ProblemTitle:  solution.Problem.Title,
	}

	if solution.AIRaw != nil {
		response.AIRaw = map[string]interface{}(solution.AIRaw)
	}

	if solution.EvaluatedAt != nil {
		evaluated := solution.EvaluatedAt.UTC().Format(time.RFC3339)
		response.EvaluatedAt = &evaluated
	}

	return response
}
