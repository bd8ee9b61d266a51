package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/service"
	"github.com/noah-isme/skola-go-api/internal/utils"
	"github.com/noah-isme/skola-go-api/pkg/ai"
)

// QuestionHandler wires question store and AI generation HTTP routes.
type QuestionHandler struct {
	questions service.QuestionService
	ai        service.AIGradingService
	logger    zerolog.Logger
}

// NewQuestionHandler constructs the handler.
func NewQuestionHandler(questions service.QuestionService, ai service.AIGradingService, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		ai:        ai,
		logger:    logger.With().Str("component", "question_handler").Logger(),
	}
}

// RegisterTaskRoutes attaches question endpoints scoped to a task.
func (h *QuestionHandler) RegisterTaskRoutes(router fiber.Router) {
	router.Get("/:taskId/questions", h.list)
	router.Post("/:taskId/questions", h.add)
	router.Post("/:taskId/questions/batch", h.addBatch)
	router.Post("/:taskId/questions/generate", h.generate)
}

// RegisterQuestionRoutes attaches endpoints addressing a single question.
func (h *QuestionHandler) RegisterQuestionRoutes(router fiber.Router) {
	router.Post("/:id/replace", h.replace)
}

func (h *QuestionHandler) list(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questions, err := h.questions.ListActive(c.Context(), taskID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *QuestionHandler) add(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.questions.AddQuestion(c.Context(), taskID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question added", question)
}

func (h *QuestionHandler) addBatch(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionBatchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	questions, err := h.questions.AddQuestionsBatch(c.Context(), taskID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "questions added", questions)
}

func (h *QuestionHandler) replace(c *fiber.Ctx) error {
	questionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.questions.ReplaceQuestion(c.Context(), questionID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question replaced", question)
}

func (h *QuestionHandler) generate(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GenerateQuestionsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.ai.GenerateQuestions(c.Context(), taskID, userIDFromContext(c), schoolIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "questions generated", result)
}

func (h *QuestionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrHomeworkNotFound),
		errors.Is(err, service.ErrParagraphNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrQuestionInactive),
		errors.Is(err, service.ErrGenerationDisabled):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, ai.ErrUnavailable),
		errors.Is(err, ai.ErrMalformedResponse),
		errors.Is(err, ai.ErrEmptyBatch):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
