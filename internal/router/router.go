package router

import (
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/warbler/internal/handlers"
	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/middleware"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/anonto42/warbler/pkg/config"
	"github.com/anonto42/warbler/validators"
	"github.com/labstack/echo/v4"
)

// Repositories is every store the handlers depend on.
type Repositories struct {
	Users         repositories.UserRepository
	Messages      repositories.MessageRepository
	Likes         repositories.LikeRepository
	Follows       repositories.FollowRepository
	Notifications repositories.NotificationRepository
}

// NewRepositories migrates the relational schema and builds the database backed repositories.
func NewRepositories(db *config.DB, cfg *config.Config, log logger.Logger) (*Repositories, error) {
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Like{},
		&models.Follow{},
		&models.Notification{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("postgres auto-migrations completed")

	likes := repositories.NewCachedLikeRepository(repositories.NewPostgresLikeRepository(db.Postgres), db.Redis, log)
	return &Repositories{
		Users:         repositories.NewPostgresUserRepository(db.Postgres),
		Messages:      repositories.NewMongoMessageRepository(db.Mongo.Database(cfg.MongoDatabase)),
		Likes:         likes,
		Follows:       repositories.NewPostgresFollowRepository(db.Postgres),
		Notifications: repositories.NewPostgresNotificationRepository(db.Postgres),
	}, nil
}

// SetupRoutes configures all application routes and injects dependencies.
// firebaseAuthClient may be nil.
func SetupRoutes(e *echo.Echo, repos *Repositories, firebaseAuthClient *auth.Client, jwtSecret string, log logger.Logger) {
	e.Validator = validators.NewValidator()

	authenticator := middleware.NewAuthenticator(repos.Users, jwtSecret, firebaseAuthClient)
	e.Use(authenticator.LoadUser())

	e.GET("/health", handlers.HealthCheck)
	e.Static("/static", "static")

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(repos.Users, authenticator, firebaseAuthClient, log)
	userHandler := handlers.NewUserHandler(repos.Users, repos.Messages, repos.Likes, log)
	messageHandler := handlers.NewMessageHandler(repos.Messages, repos.Likes, repos.Users, log)
	likeHandler := handlers.NewLikeHandler(repos.Likes, repos.Messages, repos.Users, repos.Notifications, log)
	feedHandler := handlers.NewFeedHandler(repos.Messages, repos.Users, repos.Follows, repos.Likes)
	followHandler := handlers.NewFollowHandler(repos.Follows, repos.Users, repos.Notifications, log)
	notificationHandler := handlers.NewNotificationHandler(repos.Notifications, repos.Users)
	pageHandler := handlers.NewPageHandler(feedHandler, likeHandler, messageHandler)

	// --- Pages and the like toggle ---
	pageHandler.RegisterPageRoutes(e)
	likeHandler.RegisterToggleRoutes(e, middleware.RequireUser())
	log.Info("page and like toggle routes configured")

	// --- Unprotected routes for authentication ---
	authHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"))
	log.Info("auth routes configured")

	// --- Protected routes ---
	api := e.Group("/api/v1", middleware.RequireUser())
	userHandler.RegisterProfileRoutes(api)
	messageHandler.RegisterMessageRoutes(api)
	likeHandler.RegisterLikeRoutes(api)
	feedHandler.RegisterFeedRoutes(api)
	followHandler.RegisterFollowRoutes(api)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Info("api routes configured")
}
