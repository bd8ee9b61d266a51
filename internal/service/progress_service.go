package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/internal/repository"
)

// ProgressService aggregates per-homework completion state for teachers.
type ProgressService interface {
	HomeworkProgress(ctx context.Context, homeworkID, teacherID uint) (dto.HomeworkProgressResponse, error)
}

type progressService struct {
	homeworks        repository.HomeworkRepository
	homeworkStudents repository.HomeworkStudentRepository
	submissions      repository.SubmissionRepository
	cache            *redis.Client
	cacheTTL         time.Duration
	logger           zerolog.Logger
}

// NewProgressService builds the progress aggregator. A nil cache disables caching.
func NewProgressService(homeworks repository.HomeworkRepository, homeworkStudents repository.HomeworkStudentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	return &progressService{
		homeworks:        homeworks,
		homeworkStudents: homeworkStudents,
		submissions:      submissions,
		cache:            cache,
		cacheTTL:         ttl,
		logger:           logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) HomeworkProgress(ctx context.Context, homeworkID, teacherID uint) (dto.HomeworkProgressResponse, error) {
	homework, err := s.homeworks.GetByID(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HomeworkProgressResponse{}, ErrHomeworkNotFound
		}
		return dto.HomeworkProgressResponse{}, err
	}
	if homework.TeacherID != teacherID {
		return dto.HomeworkProgressResponse{}, ErrNotOwner
	}

	cacheKey := fmt.Sprintf("progress:homework:%d", homeworkID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.HomeworkProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("homework_id", homeworkID).Msg("progress cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	response, err := s.buildProgress(ctx, homeworkID)
	if err != nil {
		return dto.HomeworkProgressResponse{}, err
	}

	if s.cache != nil {
		if payload, marshalErr := json.Marshal(response); marshalErr == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

func (s *progressService) buildProgress(ctx context.Context, homeworkID uint) (dto.HomeworkProgressResponse, error) {
	records, err := s.homeworkStudents.ListByHomework(ctx, homeworkID)
	if err != nil {
		return dto.HomeworkProgressResponse{}, err
	}

	response := dto.HomeworkProgressResponse{
		HomeworkID:    homeworkID,
		TotalStudents: len(records),
	}
	for _, record := range records {
		switch record.Status {
		case models.HomeworkStudentStatusAssigned:
			response.Assigned++
		case models.HomeworkStudentStatusInProgress:
			response.InProgress++
		case models.HomeworkStudentStatusSubmitted:
			response.Submitted++
		case models.HomeworkStudentStatusGraded:
			response.Graded++
		}
	}

	submissions, err := s.submissions.ListByHomework(ctx, homeworkID)
	if err != nil {
		return dto.HomeworkProgressResponse{}, err
	}

	var percentSum float64
	var gradedCount int
	for _, submission := range submissions {
		if submission.IsLate {
			response.LateCount++
		}
		if submission.IsInProgress() || submission.MaxScore <= 0 {
			continue
		}
		percentSum += submission.Score / submission.MaxScore * 100
		gradedCount++
	}
	if gradedCount > 0 {
		response.AverageScore = percentSum / float64(gradedCount)
	}

	return response, nil
}
