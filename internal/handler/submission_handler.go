package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/grading"
	"github.com/noah-isme/skola-go-api/internal/service"
	"github.com/noah-isme/skola-go-api/internal/utils"
)

// SubmissionHandler wires student-facing attempt HTTP routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterHomeworkRoutes attaches the attempt start endpoint.
func (h *SubmissionHandler) RegisterHomeworkRoutes(router fiber.Router) {
	router.Post("/:id/tasks/:taskId/start", h.start)
}

// RegisterSubmissionRoutes attaches endpoints addressing a running submission.
func (h *SubmissionHandler) RegisterSubmissionRoutes(router fiber.Router) {
	router.Post("/:id/answers", h.submitAnswer)
	router.Post("/:id/complete", h.complete)
}

func (h *SubmissionHandler) start(c *fiber.Ctx) error {
	homeworkID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.StartTask(c.Context(), homeworkID, taskID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task attempt started", submission)
}

func (h *SubmissionHandler) submitAnswer(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AnswerSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SubmitAnswer(c.Context(), submissionID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer recorded", result)
}

func (h *SubmissionHandler) complete(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.CompleteSubmission(c.Context(), submissionID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission completed", result)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrHomeworkNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAssigned),
		errors.Is(err, service.ErrNotYourSubmission):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotPublished),
		errors.Is(err, service.ErrHomeworkClosed),
		errors.Is(err, service.ErrSubmissionNotInProgress),
		errors.Is(err, service.ErrQuestionInactive),
		errors.Is(err, grading.ErrTooLate),
		errors.Is(err, grading.ErrLateNotAllowed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrMaxAttemptsExceeded):
		return utils.SendError(c, fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrQuestionNotInTask):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
