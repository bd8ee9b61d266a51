package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skola-go-api/internal/config"
	"github.com/noah-isme/skola-go-api/internal/database"
	"github.com/noah-isme/skola-go-api/internal/handler"
	"github.com/noah-isme/skola-go-api/internal/middleware"
	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/internal/repository"
	"github.com/noah-isme/skola-go-api/internal/router"
	"github.com/noah-isme/skola-go-api/internal/service"
	"github.com/noah-isme/skola-go-api/pkg/ai"
	cloud "github.com/noah-isme/skola-go-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Paragraph{},
		&models.StudentParagraphMastery{},
		&models.Homework{},
		&models.HomeworkTask{},
		&models.HomeworkTaskQuestion{},
		&models.HomeworkStudent{},
		&models.StudentTaskSubmission{},
		&models.StudentTaskAnswer{},
		&models.AIGenerationLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, domain events disabled")
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	aiClient, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	events := service.NewNATSEventPublisher(natsConn, cfg.EventSubjectPrefix, logger)

	homeworkRepo := repository.NewHomeworkRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	homeworkStudentRepo := repository.NewHomeworkStudentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	paragraphRepo := repository.NewParagraphRepository(db)
	masteryRepo := repository.NewMasteryRepository(db)
	aiLogRepo := repository.NewAILogRepository(db)

	homeworkService := service.NewHomeworkService(homeworkRepo, taskRepo, studentRepo, validate, uploader, events, logger)
	questionService := service.NewQuestionService(questionRepo, taskRepo, homeworkRepo, validate, logger)
	aiGradingService := service.NewAIGradingService(aiClient, questionService, taskRepo, homeworkRepo, paragraphRepo, masteryRepo, aiLogRepo, service.AIGradingConfig{
		ReviewConfidenceThreshold: cfg.AIConfidenceThreshold,
	}, logger)
	submissionService := service.NewSubmissionService(submissionRepo, answerRepo, homeworkRepo, homeworkStudentRepo, taskRepo, questionRepo, aiGradingService, events, validate, logger)
	reviewService := service.NewReviewService(answerRepo, submissionRepo, homeworkRepo, events, validate, logger)
	progressService := service.NewProgressService(homeworkRepo, homeworkStudentRepo, submissionRepo, redisClient, cfg.ProgressCacheTTL, logger)

	homeworkHandler := handler.NewHomeworkHandler(homeworkService, progressService, logger)
	questionHandler := handler.NewQuestionHandler(questionService, aiGradingService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		HomeworkHandler:   homeworkHandler,
		QuestionHandler:   questionHandler,
		SubmissionHandler: submissionHandler,
		ReviewHandler:     reviewHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
