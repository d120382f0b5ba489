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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JetsadaSomporn/docverify-api/internal/config"
	"github.com/JetsadaSomporn/docverify-api/internal/database"
	"github.com/JetsadaSomporn/docverify-api/internal/handler"
	"github.com/JetsadaSomporn/docverify-api/internal/middleware"
	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
	"github.com/JetsadaSomporn/docverify-api/internal/router"
	"github.com/JetsadaSomporn/docverify-api/internal/service"
	"github.com/JetsadaSomporn/docverify-api/internal/storage"
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
		&models.User{},
		&models.Subject{},
		&models.SubjectEnrollment{},
		&models.Group{},
		&models.GroupMember{},
		&models.Assignment{},
		&models.Submission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, stats caching disabled")
	}

	store, err := storage.NewLocalStore(cfg.UploadDir, logger)
	if err != nil {
		log.Fatalf("failed to initialise upload storage: %v", err)
	}

	var verifier service.IdentityVerifier
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		googleVerifier, err := service.NewGoogleVerifier(context.Background(), cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
		if err != nil {
			log.Fatalf("failed to initialise google oauth: %v", err)
		}
		verifier = googleVerifier
	} else {
		logger.Warn().Msg("google oauth not configured, credential login only")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	seedService := service.NewSeedService(userRepo, cfg.AdminEmail, cfg.AdminPassword, logger)
	if err := seedService.EnsureAdmin(context.Background()); err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}

	authService := service.NewAuthService(userRepo, verifier, validate, cfg.SessionSecret, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	subjectService := service.NewSubjectService(subjectRepo, userRepo, validate, logger)
	groupService := service.NewGroupService(groupRepo, subjectRepo, userRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, subjectRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, groupRepo, store, validate, cfg.UploadMaxMB, logger)
	dashboardService := service.NewDashboardService(assignmentRepo, submissionRepo, groupRepo, redisClient, cfg.StatsCacheTTL, logger)
	notificationService := service.NewNotificationService(submissionRepo, groupRepo, logger)

	deps := router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, userService, validate, cfg.IsProduction(), logger),
		UserHandler:         handler.NewUserHandler(userService, logger),
		SubjectHandler:      handler.NewSubjectHandler(subjectService, logger),
		GroupHandler:        handler.NewGroupHandler(groupService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, dashboardService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		FileHandler:         handler.NewFileHandler(store, logger),
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, deps)

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
