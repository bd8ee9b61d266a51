package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/internal/repository"
)

// ErrHomeworkNotFound indicates the requested homework does not exist.
var ErrHomeworkNotFound = errors.New("homework not found")

// ErrTaskNotFound indicates the requested task does not exist.
var ErrTaskNotFound = errors.New("homework task not found")

// ErrNotOwner indicates the caller does not own the homework.
var ErrNotOwner = errors.New("homework belongs to another teacher")

// ErrNotDraft indicates a mutation was attempted on a published or closed homework.
var ErrNotDraft = errors.New("homework can only be modified while in draft")

// ErrNoTasks indicates a publish attempt on a homework without tasks.
var ErrNoTasks = errors.New("homework has no tasks")

// ErrNoStudents indicates the publish target student set resolved empty.
var ErrNoStudents = errors.New("no students to assign the homework to")

// ErrNotPublished indicates the operation requires a published homework.
var ErrNotPublished = errors.New("homework is not published")

// ErrUnsupportedAttachment indicates the uploaded file type is not accepted.
var ErrUnsupportedAttachment = errors.New("unsupported attachment type")

var allowedAttachmentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
}

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// HomeworkService owns the homework lifecycle: draft mutation, publish
// fan-out and closing.
type HomeworkService interface {
	Create(ctx context.Context, teacherID, schoolID uint, payload dto.HomeworkCreateRequest) (dto.HomeworkResponse, error)
	Get(ctx context.Context, id uint) (dto.HomeworkResponse, error)
	Update(ctx context.Context, id, teacherID uint, payload dto.HomeworkUpdateRequest) (dto.HomeworkResponse, error)
	AddTask(ctx context.Context, homeworkID, teacherID uint, payload dto.TaskCreateRequest) (dto.TaskResponse, error)
	DeleteTask(ctx context.Context, homeworkID, taskID, teacherID uint) error
	AddAttachment(ctx context.Context, homeworkID, teacherID uint, file *multipart.FileHeader) (dto.HomeworkResponse, error)
	Publish(ctx context.Context, homeworkID, teacherID uint, studentIDs []uint) (dto.PublishResponse, error)
	Close(ctx context.Context, homeworkID, teacherID uint) (dto.HomeworkResponse, error)
}

type homeworkService struct {
	homeworks repository.HomeworkRepository
	tasks     repository.TaskRepository
	students  repository.StudentRepository
	validator *validator.Validate
	uploader  FileUploader
	events    EventPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHomeworkService builds a new homework lifecycle service.
func NewHomeworkService(homeworks repository.HomeworkRepository, tasks repository.TaskRepository, students repository.StudentRepository, validate *validator.Validate, uploader FileUploader, events EventPublisher, logger zerolog.Logger) HomeworkService {
	return &homeworkService{
		homeworks: homeworks,
		tasks:     tasks,
		students:  students,
		validator: validate,
		uploader:  uploader,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "homework_service").Logger(),
		now:       time.Now,
	}
}

func (s *homeworkService) Create(ctx context.Context, teacherID, schoolID uint, payload dto.HomeworkCreateRequest) (dto.HomeworkResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HomeworkResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.HomeworkResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	homework := models.Homework{
		SchoolID:              schoolID,
		TeacherID:             teacherID,
		ClassID:               payload.ClassID,
		Title:                 payload.Title,
		Description:           s.sanitizer.Sanitize(payload.Description),
		DueDate:               dueDate,
		Status:                models.HomeworkStatusDraft,
		LateSubmissionAllowed: payload.LateSubmissionAllowed,
		LatePenaltyPerDay:     payload.LatePenaltyPerDay,
		GracePeriodHours:      payload.GracePeriodHours,
		MaxLateDays:           payload.MaxLateDays,
		AIGenerationEnabled:   payload.AIGenerationEnabled,
		AICheckEnabled:        payload.AICheckEnabled,
	}

	if err := s.homeworks.Create(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	s.logger.Info().Uint("homework_id", homework.ID).Uint("teacher_id", teacherID).Msg("homework created")

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) Get(ctx context.Context, id uint) (dto.HomeworkResponse, error) {
	homework, err := s.homeworks.GetWithTasks(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HomeworkResponse{}, ErrHomeworkNotFound
		}
		return dto.HomeworkResponse{}, err
	}

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) Update(ctx context.Context, id, teacherID uint, payload dto.HomeworkUpdateRequest) (dto.HomeworkResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HomeworkResponse{}, err
	}

	homework, err := s.loadOwnedDraft(ctx, id, teacherID)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	if payload.Title != nil {
		homework.Title = *payload.Title
	}
	if payload.Description != nil {
		homework.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.HomeworkResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		homework.DueDate = dueDate
	}
	if payload.LateSubmissionAllowed != nil {
		homework.LateSubmissionAllowed = *payload.LateSubmissionAllowed
	}
	if payload.LatePenaltyPerDay != nil {
		homework.LatePenaltyPerDay = *payload.LatePenaltyPerDay
	}
	if payload.GracePeriodHours != nil {
		homework.GracePeriodHours = *payload.GracePeriodHours
	}
	if payload.MaxLateDays != nil {
		homework.MaxLateDays = *payload.MaxLateDays
	}
	if payload.AIGenerationEnabled != nil {
		homework.AIGenerationEnabled = *payload.AIGenerationEnabled
	}
	if payload.AICheckEnabled != nil {
		homework.AICheckEnabled = *payload.AICheckEnabled
	}

	if err := s.homeworks.Update(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	s.logger.Info().Uint("homework_id", homework.ID).Msg("homework updated")

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) AddTask(ctx context.Context, homeworkID, teacherID uint, payload dto.TaskCreateRequest) (dto.TaskResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskResponse{}, err
	}

	homework, err := s.loadOwnedDraft(ctx, homeworkID, teacherID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	sortOrder, err := s.tasks.NextSortOrder(ctx, homework.ID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	task := models.HomeworkTask{
		HomeworkID:   homework.ID,
		Type:         payload.Type,
		Title:        payload.Title,
		Instructions: s.sanitizer.Sanitize(payload.Instructions),
		SortOrder:    sortOrder,
		MaxAttempts:  payload.MaxAttempts,
		Points:       payload.Points,
		ParagraphID:  payload.ParagraphID,
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return dto.TaskResponse{}, err
	}

	s.logger.Info().Uint("homework_id", homework.ID).Uint("task_id", task.ID).Str("type", task.Type).Msg("task added")

	return dto.NewTaskResponse(task), nil
}

func (s *homeworkService) DeleteTask(ctx context.Context, homeworkID, taskID, teacherID uint) error {
	homework, err := s.loadOwnedDraft(ctx, homeworkID, teacherID)
	if err != nil {
		return err
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	if task.HomeworkID != homework.ID {
		return ErrTaskNotFound
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	s.logger.Info().Uint("homework_id", homework.ID).Uint("task_id", taskID).Msg("task deleted")
	return nil
}

func (s *homeworkService) AddAttachment(ctx context.Context, homeworkID, teacherID uint, file *multipart.FileHeader) (dto.HomeworkResponse, error) {
	homework, err := s.loadOwnedDraft(ctx, homeworkID, teacherID)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	src, err := file.Open()
	if err != nil {
		return dto.HomeworkResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return dto.HomeworkResponse{}, fmt.Errorf("failed to read file: %w", err)
	}

	detected := mimetype.Detect(content)
	if _, ok := allowedAttachmentTypes[detected.String()]; !ok {
		return dto.HomeworkResponse{}, fmt.Errorf("%w: %s", ErrUnsupportedAttachment, detected.String())
	}

	url, err := s.uploader.Upload(ctx, file.Filename, bytes.NewReader(content))
	if err != nil {
		return dto.HomeworkResponse{}, fmt.Errorf("failed to upload attachment: %w", err)
	}

	var attachments []models.HomeworkAttachment
	if len(homework.Attachments) > 0 {
		if err := json.Unmarshal(homework.Attachments, &attachments); err != nil {
			return dto.HomeworkResponse{}, fmt.Errorf("corrupt attachment list: %w", err)
		}
	}
	attachments = append(attachments, models.HomeworkAttachment{
		URL:         url,
		Name:        file.Filename,
		ContentType: detected.String(),
	})

	raw, err := json.Marshal(attachments)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}
	homework.Attachments = datatypes.JSON(raw)

	if err := s.homeworks.Update(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) Publish(ctx context.Context, homeworkID, teacherID uint, studentIDs []uint) (dto.PublishResponse, error) {
	homework, err := s.homeworks.GetWithTasks(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PublishResponse{}, ErrHomeworkNotFound
		}
		return dto.PublishResponse{}, err
	}
	if homework.TeacherID != teacherID {
		return dto.PublishResponse{}, ErrNotOwner
	}
	if homework.IsClosed() {
		return dto.PublishResponse{}, ErrNotDraft
	}

	if len(homework.Tasks) == 0 {
		return dto.PublishResponse{}, ErrNoTasks
	}

	var issues []TaskContentIssue
	for _, task := range homework.Tasks {
		if err := validateTaskContent(task); err != nil {
			issues = append(issues, TaskContentIssue{TaskID: task.ID, Type: task.Type, Reason: err.Error()})
		}
	}
	if len(issues) > 0 {
		return dto.PublishResponse{}, &TaskContentError{Issues: issues}
	}

	if len(studentIDs) == 0 {
		studentIDs, err = s.students.ListIDsByClass(ctx, homework.ClassID)
		if err != nil {
			return dto.PublishResponse{}, err
		}
	}
	if len(studentIDs) == 0 {
		return dto.PublishResponse{}, ErrNoStudents
	}

	created, err := s.homeworks.Publish(ctx, &homework, studentIDs)
	if err != nil {
		return dto.PublishResponse{}, err
	}

	s.logger.Info().
		Uint("homework_id", homework.ID).
		Int("students_assigned", created).
		Msg("homework published")

	if s.events != nil {
		s.events.Publish(EventHomeworkPublished, dto.PublishResponse{
			HomeworkID:       homework.ID,
			StudentsAssigned: created,
		})
	}

	return dto.PublishResponse{HomeworkID: homework.ID, StudentsAssigned: created}, nil
}

func (s *homeworkService) Close(ctx context.Context, homeworkID, teacherID uint) (dto.HomeworkResponse, error) {
	homework, err := s.homeworks.GetByID(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HomeworkResponse{}, ErrHomeworkNotFound
		}
		return dto.HomeworkResponse{}, err
	}
	if homework.TeacherID != teacherID {
		return dto.HomeworkResponse{}, ErrNotOwner
	}
	if !homework.IsPublished() {
		return dto.HomeworkResponse{}, ErrNotPublished
	}

	homework.Status = models.HomeworkStatusClosed
	if err := s.homeworks.Update(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	s.logger.Info().Uint("homework_id", homework.ID).Msg("homework closed")

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) loadOwnedDraft(ctx context.Context, id, teacherID uint) (models.Homework, error) {
	homework, err := s.homeworks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Homework{}, ErrHomeworkNotFound
		}
		return models.Homework{}, err
	}
	if homework.TeacherID != teacherID {
		return models.Homework{}, ErrNotOwner
	}
	if !homework.IsDraft() {
		return models.Homework{}, ErrNotDraft
	}
	return homework, nil
}
