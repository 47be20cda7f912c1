package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/middleware"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository    repositories.UserRepository
	messageRepository repositories.MessageRepository
	likeRepository    repositories.LikeRepository
	log               logger.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, messageRepo repositories.MessageRepository, likeRepo repositories.LikeRepository, log logger.Logger) *UserHandler {
	return &UserHandler{
		userRepository:    userRepo,
		messageRepository: messageRepo,
		likeRepository:    likeRepo,
		log:               log,
	}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/users", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteUser)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return userLookupError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetProfile returns the current user
func (h *UserHandler) GetProfile(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

// UpdateProfile edits the current user once the password checks out
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user := currentUser(c)
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Wrong password.")
	}

	user.Username = req.Username
	user.Email = req.Email
	user.Bio = req.Bio
	user.Location = req.Location
	user.ImageURL = req.ImageURL
	if user.ImageURL == "" {
		user.ImageURL = models.DefaultImageURL
	}
	user.HeaderImageURL = req.HeaderImageURL
	if user.HeaderImageURL == "" {
		user.HeaderImageURL = models.DefaultHeaderImageURL
	}

	if err := h.userRepository.UpdateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return echo.NewHTTPError(http.StatusConflict, "Username or email already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes the current user with their warbles and ends the session
func (h *UserHandler) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	messageIDs, err := h.messageRepository.DeleteMessagesByUserID(ctx, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if _, err := h.likeRepository.DeleteLikesForMessages(ctx, messageIDs); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	likedIDs, err := h.likeRepository.DeleteLikesByUser(ctx, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.userRepository.DeleteUser(ctx, user.ID); err != nil {
		return userLookupError(err)
	}
	for _, id := range likedIDs {
		if err := syncLikesCount(ctx, h.likeRepository, h.messageRepository, id); err != nil {
			h.log.Warn("likes count not updated", logger.String("message_id", id), logger.Error(err))
		}
	}
	if err := middleware.Logout(c); err != nil {
		h.log.Warn("session not cleared after account deletion", logger.Uint("user_id", user.ID), logger.Error(err))
	}

	h.log.Info("user deleted", logger.Uint("user_id", user.ID), logger.Int("messages", len(messageIDs)))
	return c.NoContent(http.StatusNoContent)
}

// SearchUsers lists users whose username contains q, or everyone without q
func (h *UserHandler) SearchUsers(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("q")

	var (
		users []models.User
		err   error
	)
	if query == "" {
		users, err = h.userRepository.GetUsers(ctx)
	} else {
		users, err = h.userRepository.SearchUsers(ctx, query)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users)
}
