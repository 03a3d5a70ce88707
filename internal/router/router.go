package router

import (
	"log"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/tanvir-hossain-dev/opencircle/backend/internal/handlers"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/middleware"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/push"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/services"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/config"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/firebase"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, fb *firebase.App) {
	// AutoMigrate PostgreSQL models
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Relation{},
		&models.Notification{},
		&models.Device{},
		&models.Conversation{},
		&models.Message{},
		&models.Comment{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	mongoDB := db.Mongo.Database(cfg.MongoDatabase)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	relationRepo := repositories.NewPostgresRelationRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	deviceRepo := repositories.NewPostgresDeviceRepository(db.Postgres)
	conversationRepo := repositories.NewPostgresConversationRepository(db.Postgres)
	messageRepo := repositories.NewPostgresMessageRepository(db.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(db.Postgres)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	storyRepo := repositories.NewMongoStoryRepository(mongoDB)

	// --- Initialize Services ---
	sender := push.NewFCMSender(fb.MessagingClient, logger)
	dispatcher := services.NewNotificationDispatcher(notificationRepo, deviceRepo, sender, logger)
	relationService := services.NewRelationService(relationRepo, userRepo, postRepo, logger)
	conversationService := services.NewConversationService(conversationRepo, userRepo)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, fb.AuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Like routes
	likeHandler := handlers.NewLikeHandler(relationService, relationRepo, postRepo, userRepo, dispatcher)
	likeHandler.RegisterLikeRoutes(api)
	log.Println("Like routes configured.")

	// Bookmark routes
	bookmarkHandler := handlers.NewBookmarkHandler(relationService, relationRepo, postRepo)
	bookmarkHandler.RegisterBookmarkRoutes(api)
	log.Println("Bookmark routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(relationService, relationRepo, userRepo, dispatcher)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Block routes
	blockHandler := handlers.NewBlockHandler(relationService)
	blockHandler.RegisterBlockRoutes(api)
	log.Println("Block routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, dispatcher)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Conversation and message routes
	messageHandler := handlers.NewMessageHandler(conversationService, conversationRepo, messageRepo, userRepo, dispatcher)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	// Story routes
	storyHandler := handlers.NewStoryHandler(storyRepo, userRepo, conversationService, messageRepo, dispatcher)
	storyHandler.RegisterStoryRoutes(api)
	log.Println("Story routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Device routes
	deviceHandler := handlers.NewDeviceHandler(deviceRepo)
	deviceHandler.RegisterDeviceRoutes(api)
	log.Println("Device routes configured.")

	log.Println("All routes configured.")
}
