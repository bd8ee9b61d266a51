package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/skola-go-api/internal/config"
	"github.com/noah-isme/skola-go-api/internal/handler"
	"github.com/noah-isme/skola-go-api/internal/middleware"
	"github.com/noah-isme/skola-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HomeworkHandler   *handler.HomeworkHandler
	QuestionHandler   *handler.QuestionHandler
	SubmissionHandler *handler.SubmissionHandler
	ReviewHandler     *handler.ReviewHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Teacher surface: homework authoring, questions, review queue.
	if deps.HomeworkHandler != nil {
		teacher := app.Group("/api/v1/teacher", jwtMiddleware, middleware.RequireRole("teacher", "admin"))

		homeworkGroup := teacher.Group("/homeworks")
		deps.HomeworkHandler.Register(homeworkGroup)

		if deps.QuestionHandler != nil {
			taskGroup := teacher.Group("/tasks")
			// LLM calls are expensive; keep generation behind a limiter.
			taskGroup.Use("/:taskId/questions/generate", middleware.RateLimit("generate", cfg.GenerationRateLimit, cfg.GenerationRateWindow))
			deps.QuestionHandler.RegisterTaskRoutes(taskGroup)

			questionGroup := teacher.Group("/questions")
			deps.QuestionHandler.RegisterQuestionRoutes(questionGroup)
		}

		if deps.ReviewHandler != nil {
			reviewGroup := teacher.Group("/reviews")
			deps.ReviewHandler.Register(reviewGroup)
		}
	}

	// Student surface: attempts and answers.
	if deps.SubmissionHandler != nil {
		student := app.Group("/api/v1/student", jwtMiddleware, middleware.RequireRole("student"))

		homeworkGroup := student.Group("/homeworks")
		deps.SubmissionHandler.RegisterHomeworkRoutes(homeworkGroup)

		submissionGroup := student.Group("/submissions")
		deps.SubmissionHandler.RegisterSubmissionRoutes(submissionGroup)
	}
}
