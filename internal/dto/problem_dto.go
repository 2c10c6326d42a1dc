package dto

import "github.com/skillforge/arena-api/internal/models"

// ProblemResponse represents a posted problem to API consumers.
type ProblemResponse struct {
	ID           uint   `json:"id"`
	OwnerID      uint   `json:"owner_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Domain       string `json:"domain"`
	Difficulty   string `json:"difficulty"`
	Objectives   string `json:"objectives,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	RewardPoints int    `json:"reward_points"`
	Status       string `json:"status"`
}

// NewProblemResponse converts a Problem model into a DTO.
func NewProblemResponse(problem models.Problem) ProblemResponse {
	return ProblemResponse{
		ID:           problem.ID,
		OwnerID:      problem.OwnerID,
		Title:        problem.Title,
		Description:  problem.Description,
		Domain:       problem.Domain,
		Difficulty:   problem.Difficulty,
		Objectives:   problem.Objectives,
		Requirements: problem.Requirements,
		RewardPoints: problem.RewardPoints,
		Status:       problem.Status,
	}
}
