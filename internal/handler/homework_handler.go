package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/service"
	"github.com/noah-isme/skola-go-api/internal/utils"
)

// HomeworkHandler wires homework lifecycle HTTP routes.
type HomeworkHandler struct {
	service  service.HomeworkService
	progress service.ProgressService
	logger   zerolog.Logger
}

// NewHomeworkHandler constructs the handler.
func NewHomeworkHandler(service service.HomeworkService, progress service.ProgressService, logger zerolog.Logger) *HomeworkHandler {
	return &HomeworkHandler{
		service:  service,
		progress: progress,
		logger:   logger.With().Str("component", "homework_handler").Logger(),
	}
}

// Register attaches homework endpoints to the router group.
func (h *HomeworkHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Post("/:id/tasks", h.addTask)
	router.Delete("/:id/tasks/:taskId", h.deleteTask)
	router.Post("/:id/attachments", h.addAttachment)
	router.Post("/:id/publish", h.publish)
	router.Post("/:id/close", h.close)
	router.Get("/:id/progress", h.homeworkProgress)
}

func (h *HomeworkHandler) create(c *fiber.Ctx) error {
	var payload dto.HomeworkCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	homework, err := h.service.Create(c.Context(), userIDFromContext(c), schoolIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "homework created", homework)
}

func (h *HomeworkHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	homework, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework retrieved", homework)
}

func (h *HomeworkHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.HomeworkUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	homework, err := h.service.Update(c.Context(), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework updated", homework)
}

func (h *HomeworkHandler) addTask(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TaskCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	task, err := h.service.AddTask(c.Context(), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task added", task)
}

func (h *HomeworkHandler) deleteTask(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteTask(c.Context(), id, taskID, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task deleted", fiber.Map{"id": taskID})
}

func (h *HomeworkHandler) addAttachment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	homework, err := h.service.AddAttachment(c.Context(), id, userIDFromContext(c), file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attachment added", homework)
}

func (h *HomeworkHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PublishRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	result, err := h.service.Publish(c.Context(), id, userIDFromContext(c), payload.StudentIDs)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework published", result)
}

func (h *HomeworkHandler) close(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	homework, err := h.service.Close(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework closed", homework)
}

func (h *HomeworkHandler) homeworkProgress(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	progress, err := h.progress.HomeworkProgress(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homework progress retrieved", progress)
}

func (h *HomeworkHandler) handleError(c *fiber.Ctx, err error) error {
	var contentErr *service.TaskContentError
	switch {
	case errors.Is(err, service.ErrHomeworkNotFound), errors.Is(err, service.ErrTaskNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotDraft),
		errors.Is(err, service.ErrNotPublished),
		errors.Is(err, service.ErrNoTasks),
		errors.Is(err, service.ErrNoStudents):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &contentErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "homework has tasks with insufficient content", contentErr.Issues)
	case errors.Is(err, service.ErrUnsupportedAttachment):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
