package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skillforge/arena-api/internal/dto"
	"github.com/skillforge/arena-api/internal/service"
	"github.com/skillforge/arena-api/internal/utils"
)

// ProblemHandler exposes read access to posted problems.
type ProblemHandler struct {
	provider service.ProblemProvider
	logger   zerolog.Logger
}

// NewProblemHandler constructs the handler.
func NewProblemHandler(provider service.ProblemProvider, logger zerolog.Logger) *ProblemHandler {
	return &ProblemHandler{
		provider: provider,
		logger:   logger.With().Str("component", "problem_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *ProblemHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
}

func (h *ProblemHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	problem, err := h.provider.GetProblem(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "problem not found")
		}
		h.logger.Error().Err(err).Msg("problem lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "problem retrieved", dto.NewProblemResponse(problem))
}
