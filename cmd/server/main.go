package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	httpadapter "cvbuilder-backend/internal/adapter/http"
	repo "cvbuilder-backend/internal/adapter/repository"
	"cvbuilder-backend/internal/config"
	"cvbuilder-backend/internal/domain"
	"cvbuilder-backend/internal/infrastructure/migration"
	"cvbuilder-backend/internal/model"
	"cvbuilder-backend/internal/usecase"
	infra "cvbuilder-backend/pkg/infrastructure"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	model.SchemaDir = cfg.SchemaDir

	pool, err := infra.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := migration.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	migration.SeedDefaultTemplate(ctx, pool, cfg.SchemaDir)

	templates := repo.NewTemplatesRepo(pool)
	resumes := repo.NewResumesRepo(pool)
	users := repo.NewUsersRepo(pool)
	renderer := infra.NewChromedpRenderer(cfg.ChromePath)

	service := usecase.NewService(templates, resumes, users, renderer,
		domain.DefaultPaymentOptions(), cfg.RenderTimeout)

	app := fiber.New(fiber.Config{
		AppName:   "cvbuilder-backend",
		BodyLimit: 2 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	httpadapter.NewHandler(templates, resumes, service).Register(app)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	}()
	slog.Info("server started", "port", cfg.Port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
