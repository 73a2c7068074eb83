package main

import (
	"log"
	"net/http"
	"os"

	_ "sahayak/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"sahayak/internal/advisor"
	"sahayak/internal/auth"
	"sahayak/internal/cache"
	"sahayak/internal/config"
	"sahayak/internal/db"
	"sahayak/internal/geo"
	"sahayak/internal/handler"
	"sahayak/internal/model"
	"sahayak/internal/repository"
	"sahayak/internal/router"
	"sahayak/internal/service"
)

// @title Sahayak API
// @version 1.0
// @description Hyper-local task marketplace API with geospatial discovery, trust scoring, and AI-assisted verification.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Review{},
			&model.Task{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.Review{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	geoIndex := geo.NewIndex(cacheClient.Underlying())

	// The advisor degrades to static defaults when no API key is configured.
	var adv advisor.Advisor
	if cfg.GeminiAPIKey != "" {
		adv = advisor.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AdvisorTimeout)
	} else {
		log.Println("GEMINI_API_KEY not set, advisory checks return neutral defaults")
		adv = advisor.NewStatic()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, adv)
	taskService := service.NewTaskService(taskRepo, userRepo, adv, geoIndex, cacheClient)
	userService := service.NewUserService(userRepo, taskRepo, reviewRepo, cacheClient)
	reviewService := service.NewReviewService(reviewRepo, taskRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService)
	userHandler := handler.NewUserHandler(userService, taskService, reviewService)
	reviewHandler := handler.NewReviewHandler(reviewService)

	// Register routes
	router.Register(
		e,
		cfg,
		authHandler,
		taskHandler,
		userHandler,
		reviewHandler,
	)

	// Log swagger full path
	var swaggerURL string
	if cfg.SwaggerHost != "" {
		// SwaggerHost may already include scheme (http:// or https://)
		if len(cfg.SwaggerHost) >= 7 && cfg.SwaggerHost[:7] == "http://" {
			swaggerURL = cfg.SwaggerHost + "/swagger/index.html"
		} else if len(cfg.SwaggerHost) >= 8 && cfg.SwaggerHost[:8] == "https://" {
			swaggerURL = cfg.SwaggerHost + "/swagger/index.html"
		} else {
			swaggerURL = "http://" + cfg.SwaggerHost + "/swagger/index.html"
		}
	} else {
		swaggerURL = "http://localhost:" + cfg.ServerPort + "/swagger/index.html"
	}
	log.Printf("Swagger documentation available at: %s", swaggerURL)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
