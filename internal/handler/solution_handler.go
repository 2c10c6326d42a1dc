package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skillforge/arena-api/internal/dto"
	"github.com/skillforge/arena-api/internal/service"
	"github.com/skillforge/arena-api/internal/utils"
)

// SolutionHandler exposes the solution submission and evaluation endpoints.
type SolutionHandler struct {
	service   service.EvaluationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSolutionHandler constructs the handler.
func NewSolutionHandler(service service.EvaluationService, validator *validator.Validate, logger zerolog.Logger) *SolutionHandler {
	return &SolutionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "solution_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *SolutionHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/mine", h.listMine)
	router.Get("/rewards", h.rewardBalance)
	router.Get("/:id", h.get)
	router.Patch("/:id/evaluate", h.evaluateManually)
}

// RegisterProblemRoutes wires the owner-facing listing under the problems group.
func (h *SolutionHandler) RegisterProblemRoutes(router fiber.Router) {
	router.Get("/:id/solutions", h.listForProblem)
}

func (h *SolutionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitSolutionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submitterID := userIDFromContext(c)
	if submitterID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	outcome, err := h.service.Submit(c.Context(), submitterID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, submitMessage(outcome), outcome)
}

func (h *SolutionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), id, userIDFromContext(c), userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "solution retrieved", response)
}

func (h *SolutionHandler) listMine(c *fiber.Ctx) error {
	submitterID := userIDFromContext(c)
	if submitterID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	responses, err := h.service.ListMine(c.Context(), submitterID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "solutions retrieved", responses)
}

func (h *SolutionHandler) listForProblem(c *fiber.Ctx) error {
	problemID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	responses, err := h.service.ListForProblem(c.Context(), problemID, userIDFromContext(c), userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "solutions retrieved", responses)
}

func (h *SolutionHandler) rewardBalance(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	balance, err := h.service.RewardBalance(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "reward balance retrieved", balance)
}

func (h *SolutionHandler) evaluateManually(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ManualEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	orgID := userIDFromContext(c)
	role := userRoleFromContext(c)
	if orgID == 0 || role == "" {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	response, err := h.service.EvaluateManually(c.Context(), id, orgID, role, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "manual evaluation recorded", response)
}

func (h *SolutionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrProblemUnavailable):
		return utils.SendError(c, fiber.StatusNotFound, "problem not found or no longer open")
	case errors.Is(err, service.ErrDuplicateSubmission):
		return utils.SendError(c, fiber.StatusConflict, "solution already submitted for this problem")
	case errors.Is(err, service.ErrSolutionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSolutionForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrUpdateConflict):
		return utils.SendError(c, fiber.StatusConflict, "concurrent update, please retry")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("solution operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func submitMessage(outcome dto.SubmitOutcomeResponse) string {
	if outcome.Score == nil {
		return "solution submitted, awaiting evaluation"
	}
	return "solution submitted and evaluated"
}
