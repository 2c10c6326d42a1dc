package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillforge/arena-api/internal/dto"
	"github.com/skillforge/arena-api/internal/models"
	"github.com/skillforge/arena-api/internal/observability"
	"github.com/skillforge/arena-api/internal/repository"
	"github.com/skillforge/arena-api/pkg/ai"
)

// ErrProblemUnavailable indicates the problem does not exist or no longer accepts submissions.
var ErrProblemUnavailable = errors.New("problem not found or no longer open")

// ErrDuplicateSubmission indicates the submitter already has a solution for the problem.
var ErrDuplicateSubmission = errors.New("solution already submitted for this problem")

// ErrSolutionNotFound indicates the solution cannot be located.
var ErrSolutionNotFound = errors.New("solution not found")

// ErrSolutionForbidden indicates the caller may not access the solution.
var ErrSolutionForbidden = errors.New("forbidden")

// ErrUpdateConflict indicates a solution update kept losing against concurrent writers.
var ErrUpdateConflict = errors.New("solution update conflict, retry")

// Roles carried in the caller's token.
const (
	RoleUser         = "user"
	RoleOrganization = "organization"
	RoleAdmin        = "admin"
)

// EvaluationService owns the solution lifecycle: admission, automatic
// evaluation, the manual-score merge, and visibility.
type EvaluationService interface {
	Submit(ctx context.Context, submitterID uint, payload dto.SubmitSolutionRequest) (dto.SubmitOutcomeResponse, error)
	Get(ctx context.Context, id uint, viewerID uint, role string) (dto.SolutionResponse, error)
	ListMine(ctx context.Context, submitterID uint) ([]dto.SolutionResponse, error)
	ListForProblem(ctx context.Context, problemID uint, viewerID uint, role string) ([]dto.SolutionResponse, error)
	EvaluateManually(ctx context.Context, solutionID uint, orgID uint, role string, payload dto.ManualEvaluationRequest) (dto.ManualEvaluationResponse, error)
	RewardBalance(ctx context.Context, userID uint) (dto.RewardBalanceResponse, error)
}

type evaluationService struct {
	solutions repository.SolutionRepository
	rewards   repository.RewardRepository
	problems  ProblemProvider
	evaluator ai.Evaluator
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEvaluationService constructs the evaluation engine. The evaluator is the
// scoring strategy chosen at startup; a nil evaluator leaves every submission
// pending.
func NewEvaluationService(solutions repository.SolutionRepository, rewards repository.RewardRepository, problems ProblemProvider, evaluator ai.Evaluator, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		solutions: solutions,
		rewards:   rewards,
		problems:  problems,
		evaluator: evaluator,
		validator: validate,
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		now:       time.Now,
	}
}

// Submit admits a solution and runs automatic evaluation synchronously. The
// caller always learns the evaluation outcome: approved or rejected with a
// score, or pending when the scoring provider could not answer.
func (s *evaluationService) Submit(ctx context.Context, submitterID uint, payload dto.SubmitSolutionRequest) (dto.SubmitOutcomeResponse, error) {
	tracer := otel.Tracer("github.com/skillforge/arena-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.submit")
	span.SetAttributes(
		attribute.Int64("submission.problem_id", int64(payload.ProblemID)),
		attribute.Int64("submission.submitter_id", int64(submitterID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitOutcomeResponse{}, err
	}

	problem, err := s.problems.GetProblem(ctx, payload.ProblemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitOutcomeResponse{}, ErrProblemUnavailable
		}
		return dto.SubmitOutcomeResponse{}, err
	}
	if !problem.IsOpen() {
		return dto.SubmitOutcomeResponse{}, ErrProblemUnavailable
	}

	if _, err := s.solutions.GetBySubmitterAndProblem(ctx, submitterID, payload.ProblemID); err == nil {
		return dto.SubmitOutcomeResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmitOutcomeResponse{}, err
	}

	solution := models.Solution{
		ProblemID:   payload.ProblemID,
		SubmitterID: submitterID,
		Text:        payload.Text,
		RepoLink:    strings.TrimSpace(payload.RepoLink),
		DemoLink:    strings.TrimSpace(payload.DemoLink),
		Status:      models.SolutionStatusPending,
	}

	if err := s.solutions.Create(ctx, &solution); err != nil {
		// The unique constraint backs the duplicate check against a
		// concurrent submit for the same pair.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmitOutcomeResponse{}, ErrDuplicateSubmission
		}
		return dto.SubmitOutcomeResponse{}, err
	}

	outcome := s.evaluateAutomatically(ctx, &solution, problem)
	observability.SolutionOutcomes().WithLabelValues(outcome.Status).Inc()
	span.SetAttributes(attribute.String("submission.status", outcome.Status))
	return outcome, nil
}

// evaluateAutomatically invokes the scoring gateway once and resolves the
// result into the solution record. Any gateway failure degrades to a pending
// outcome; it is never surfaced to the submitter as a request failure.
func (s *evaluationService) evaluateAutomatically(ctx context.Context, solution *models.Solution, problem models.Problem) dto.SubmitOutcomeResponse {
	pending := dto.SubmitOutcomeResponse{
		SolutionID: solution.ID,
		Status:     models.SolutionStatusPending,
	}

	if s.evaluator == nil {
		s.logger.Warn().Uint("solution_id", solution.ID).Msg("no evaluator configured, solution stays pending")
		return pending
	}

	result, err := s.evaluator.Evaluate(ctx, ai.EvaluationInput{
		ProblemTitle:       problem.Title,
		ProblemDescription: problem.Description,
		Domain:             problem.Domain,
		Difficulty:         problem.Difficulty,
		Objectives:         problem.Objectives,
		Requirements:       problem.Requirements,
		SolutionText:       solution.Text,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Uint("solution_id", solution.ID).
			Msg("automatic evaluation unavailable, solution stays pending")
		return pending
	}

	status := models.SolutionStatusRejected
	reward := 0
	if result.Score >= models.ApprovalThreshold {
		status = models.SolutionStatusApproved
		reward = problem.RewardPoints
	}

	evaluatedAt := s.now()
	err = s.applyVersioned(ctx, solution, func(record *models.Solution) {
		score := result.Score
		record.AIScore = &score
		record.AIFeedback = result.Feedback
		record.AIRaw = datatypes.JSONMap(result.Raw)
		// A manual evaluation may have landed between the read and this
		// write. The merge must hold no matter which side commits last.
		final := score
		if record.ManualScore != nil {
			final = mergeScores(&score, *record.ManualScore)
		}
		record.FinalScore = &final
		record.Status = status
		record.RewardGranted = reward
		record.EvaluatedAt = &evaluatedAt
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("solution_id", solution.ID).Msg("failed to persist automatic evaluation")
		return pending
	}

	if status == models.SolutionStatusApproved && reward > 0 {
		entry := models.RewardEntry{SolutionID: solution.ID, UserID: solution.SubmitterID, Points: reward}
		if err := s.rewards.Credit(ctx, &entry); err != nil {
			s.logger.Error().Err(err).Uint("solution_id", solution.ID).Msg("failed to credit reward ledger")
		}
	}

	score := result.Score
	return dto.SubmitOutcomeResponse{
		SolutionID:    solution.ID,
		Status:        status,
		Score:         &score,
		Feedback:      result.Feedback,
		RewardGranted: reward,
	}
}

func (s *evaluationService) Get(ctx context.Context, id uint, viewerID uint, role string) (dto.SolutionResponse, error) {
	solution, err := s.solutions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SolutionResponse{}, ErrSolutionNotFound
		}
		return dto.SolutionResponse{}, err
	}

	if !canViewSolution(viewerID, role, solution) {
		return dto.SolutionResponse{}, ErrSolutionForbidden
	}

	return dto.NewSolutionResponse(solution), nil
}

func (s *evaluationService) ListMine(ctx context.Context, submitterID uint) ([]dto.SolutionResponse, error) {
	solutions, err := s.solutions.ListBySubmitter(ctx, submitterID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SolutionResponse, 0, len(solutions))
	for _, solution := range solutions {
		responses = append(responses, dto.NewSolutionResponse(solution))
	}
	return responses, nil
}

func (s *evaluationService) ListForProblem(ctx context.Context, problemID uint, viewerID uint, role string) ([]dto.SolutionResponse, error) {
	problem, err := s.problems.GetProblem(ctx, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProblemUnavailable
		}
		return nil, err
	}

	if !isOrganizationOwner(viewerID, role, problem) && !strings.EqualFold(role, RoleAdmin) {
		return nil, ErrSolutionForbidden
	}

	solutions, err := s.solutions.ListByProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SolutionResponse, 0, len(solutions))
	for _, solution := range solutions {
		responses = append(responses, dto.NewSolutionResponse(solution))
	}
	return responses, nil
}

// EvaluateManually merges an organization's score into the solution.
//
// The merge averages the manual score with the automatic score, substituting
// zero when no automatic score exists, so it is order-independent with
// respect to automatic evaluation and idempotent for equal input. It leaves
// status and reward untouched: approval remains the automatic evaluator's
// verdict. Re-evaluating overwrites the previous manual score.
func (s *evaluationService) EvaluateManually(ctx context.Context, solutionID uint, orgID uint, role string, payload dto.ManualEvaluationRequest) (dto.ManualEvaluationResponse, error) {
	tracer := otel.Tracer("github.com/skillforge/arena-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.manual")
	span.SetAttributes(
		attribute.Int64("evaluation.solution_id", int64(solutionID)),
		attribute.Int64("evaluation.org_id", int64(orgID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ManualEvaluationResponse{}, err
	}

	solution, err := s.solutions.GetByID(ctx, solutionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ManualEvaluationResponse{}, ErrSolutionNotFound
		}
		return dto.ManualEvaluationResponse{}, err
	}

	problem, err := s.problems.GetProblem(ctx, solution.ProblemID)
	if err != nil {
		return dto.ManualEvaluationResponse{}, err
	}

	if !isOrganizationOwner(orgID, role, problem) && !strings.EqualFold(role, RoleAdmin) {
		return dto.ManualEvaluationResponse{}, ErrSolutionForbidden
	}

	note := strings.TrimSpace(payload.Note)
	evaluatedAt := s.now()
	err = s.applyVersioned(ctx, &solution, func(record *models.Solution) {
		manual := *payload.Score
		record.ManualScore = &manual
		record.ManualNote = note
		merged := mergeScores(record.AIScore, manual)
		record.FinalScore = &merged
		if record.EvaluatedAt == nil {
			record.EvaluatedAt = &evaluatedAt
		}
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "manual_evaluation_update_failed")
		return dto.ManualEvaluationResponse{}, err
	}

	span.SetAttributes(attribute.Float64("evaluation.final_score", *solution.FinalScore))

	return dto.ManualEvaluationResponse{
		SolutionID:  solution.ID,
		ManualScore: *payload.Score,
		FinalScore:  solution.FinalScore,
		Status:      solution.Status,
	}, nil
}

// RewardBalance sums the caller's ledger entries. Only approved solutions
// ever credit the ledger, so the total reflects granted rewards alone.
func (s *evaluationService) RewardBalance(ctx context.Context, userID uint) (dto.RewardBalanceResponse, error) {
	total, err := s.rewards.TotalForUser(ctx, userID)
	if err != nil {
		return dto.RewardBalanceResponse{}, err
	}
	return dto.RewardBalanceResponse{UserID: userID, TotalPoints: total}, nil
}

// applyVersioned runs a read-mutate-write cycle against the solution store.
// The mutation is a function of the freshly read record, so when the
// versioned write loses a race the cycle re-reads and recomputes against the
// winner's fields instead of a stale snapshot. One internal retry, then the
// conflict surfaces as transient.
func (s *evaluationService) applyVersioned(ctx context.Context, solution *models.Solution, mutate func(*models.Solution)) error {
	mutate(solution)
	err := s.solutions.UpdateVersioned(ctx, solution)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrVersionConflict) {
		return err
	}

	fresh, readErr := s.solutions.GetByID(ctx, solution.ID)
	if readErr != nil {
		return readErr
	}
	mutate(&fresh)
	if err := s.solutions.UpdateVersioned(ctx, &fresh); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrUpdateConflict
		}
		return err
	}
	*solution = fresh
	return nil
}

// mergeScores is the reconciliation rule between automatic and manual
// evaluation: the average of both, with a missing automatic score counted as
// zero.
func mergeScores(aiScore *float64, manualScore float64) float64 {
	base := 0.0
	if aiScore != nil {
		base = *aiScore
	}
	return (base + manualScore) / 2
}

// canViewSolution gates both detail fetches and manual evaluation: a
// solution is visible to its submitter, the organization owning its problem,
// and admins.
func canViewSolution(viewerID uint, role string, solution models.Solution) bool {
	if viewerID != 0 && viewerID == solution.SubmitterID {
		return true
	}
	if isOrganizationOwner(viewerID, role, solution.Problem) {
		return true
	}
	return strings.EqualFold(role, RoleAdmin)
}

func isOrganizationOwner(viewerID uint, role string, problem models.Problem) bool {
	return strings.EqualFold(role, RoleOrganization) && viewerID != 0 && viewerID == problem.OwnerID
}
