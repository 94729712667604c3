package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"incidentwatch/report-pipeline/config"
	"incidentwatch/report-pipeline/handlers"
	"incidentwatch/report-pipeline/internal/extractor"
	"incidentwatch/report-pipeline/internal/geocoder"
	"incidentwatch/report-pipeline/internal/pipeline"
	"incidentwatch/report-pipeline/internal/queue"
	"incidentwatch/report-pipeline/internal/store"
	"incidentwatch/report-pipeline/middleware"
	"incidentwatch/report-pipeline/models"
)

func main() {
	config.InitLogger()
	log := config.Log

	pg, err := config.NewPostgrestClient()
	if err != nil {
		log.Fatalf("Failed to initialize Supabase: %v", err)
	}

	validate := models.NewValidator()
	jobStore := store.NewJobStore(pg, log)
	violationStore := store.NewViolationStore(pg, validate, log)

	ext := extractor.New(os.Getenv("ANTHROPIC_API_KEY"), os.Getenv("ANTHROPIC_MODEL"), log)
	geo := geocoder.New(os.Getenv("GEOCODER_URL"), os.Getenv("GEOCODER_API_KEY"), log)

	pipe := pipeline.New(jobStore, violationStore, ext, geo, validate, log)

	q := queue.New(queue.Options{}, log)
	q.OnDequeue(pipe.Run)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	q.Start(ctx)

	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger())

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Report pipeline is healthy",
		})
	})

	h := handlers.NewApplicationHandler(jobStore, q, log)

	// API v1 routes
	apiV1 := app.Group("/api/v1")
	apiV1.Post("/reports", h.SubmitReport)
	apiV1.Get("/jobs/:jobId", h.GetJobStatus)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		log.Infof("Starting report pipeline on port %s...", port)
		if err := app.Listen(":" + port); err != nil {
			log.Errorf("HTTP server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down report pipeline...")
	if err := app.Shutdown(); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
	}
	q.Stop()
	log.Info("Report pipeline shut down gracefully.")
}
