package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"donorlink/internal/config"
	"donorlink/internal/domain"
	"donorlink/internal/handler"
	"donorlink/internal/middleware"
	"donorlink/internal/repository"
	"donorlink/internal/service"
	"donorlink/internal/service/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		log.Printf("Warning: no database connection (%v), notifications are kept in memory", err)
		db = nil
	} else {
		defer db.Close()
	}

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: no Redis connection (%v), sessions will not survive restarts", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	repos := repository.NewRepositories(db, redisClient)
	services := service.NewServices(repos, cfg)
	handlers := handler.NewHandlers(services, cfg)

	state, err := services.Auth.Hydrate(context.Background())
	if err != nil {
		log.Fatalf("Failed to hydrate session state: %v", err)
	}
	log.Printf("Session state restored: %s", state)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	setupRoutes(app, handlers, services.Auth)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRoutes(app *fiber.App, h *handler.Handlers, authService auth.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/verify-otp", h.Auth.VerifyOTP)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Get("/session", h.Auth.Session)

	protected := v1.Group("", middleware.AuthRequired(authService))

	users := protected.Group("/users")
	users.Put("/me", h.Auth.UpdateProfile)

	threads := protected.Group("/threads")
	threads.Get("/", h.Thread.List)
	threads.Post("/", middleware.RequireRole(domain.RoleAdmin), h.Thread.Create)
	threads.Get("/:threadId", h.Thread.Get)
	threads.Post("/:threadId/messages", h.Thread.SendMessage)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Post("/", middleware.RequireRole(domain.RoleAdmin), h.Notification.Create)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Post("/mark-all-read", h.Notification.MarkAllAsRead)
}
