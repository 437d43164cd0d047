package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/prorabapp/prorab-data/internal/config"
	"github.com/prorabapp/prorab-data/internal/database"
	"github.com/prorabapp/prorab-data/internal/handlers"
	"github.com/prorabapp/prorab-data/internal/middleware"
	"github.com/prorabapp/prorab-data/internal/types"

	_ "github.com/prorabapp/prorab-data/docs/api" // Swagger docs
)

// @title Prorab Data API
// @version 1.0.0
// @description Data service for the Prorab contractor application
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/prorabapp/prorab-data

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database (app pool, public share-link traffic)
	appDB, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to app database: %v", err)
	}
	defer database.Close(appDB)

	// Connect to database (user pool, authenticated contractor traffic)
	userDB, err := database.ConnectUser(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to user database: %v", err)
	}
	defer database.Close(userDB)

	// Run auto-migrations
	if err := database.AutoMigrate(appDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("prorab")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Create handlers
	privateHandler := &handlers.PrivateDataHandler{DB: userDB}
	publicHandler := &handlers.PublicDataHandler{DB: appDB}
	actHandler := &handlers.ActHandler{DB: userDB, Cfg: cfg}
	adminHandler := &handlers.AdminHandler{DB: appDB, Cfg: cfg}

	// Health endpoint
	app.Get("/health", adminHandler.Health)

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	// Public share-link routes (no authentication)
	public := api.Group("/public")
	public.Get("/estimate", publicHandler.GetSharedEstimate)
	public.Post("/estimate/approve", publicHandler.ApproveEstimate)
	public.Post("/estimate/comment", publicHandler.AddComment)

	// Contractor data routes (all require user authentication)
	data := api.Group("/data")
	private := data.Group("/private", middleware.AuthUser(cfg))
	private.Get("/projects", privateHandler.GetProjects)
	private.Post("/projects", privateHandler.SaveProjects)
	private.Post("/projects/:project/estimates/:estimate/template", privateHandler.ApplyTemplate)
	private.Post("/act/:project", actHandler.GenerateAct)
	private.Get("/:collection", privateHandler.GetCollection)
	private.Post("/:collection", privateHandler.SaveCollection)
	private.Delete("/:collection", privateHandler.DeleteCollection)

	// Admin-only operational routes
	admin := data.Group("/admin", middleware.AuthAdmin(cfg))
	admin.Post("/projection/rebuild", adminHandler.RebuildProjection)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Authorizer is initialized on the first authenticated request
	log.Printf("Authorizer will be initialized on first authenticated request")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	if e, ok := err.(*types.CustomError); ok {
		code = e.Code
		message = e.Message
		errorType = e.Type
	}

	// Check for version errors
	versionError := false
	if code == fiber.StatusConflict || (len(message) >= 9 && message[:9] == "E_VERSION") {
		versionError = true
		errorType = "version"
		code = fiber.StatusConflict
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       code,
		"message":      message,
		"ok":           false,
		"versionError": versionError,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}
