package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	log                    logger.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, log logger.Logger) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		log:                    log,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/followers", h.GetFollowers)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	ctx := c.Request().Context()
	current := currentUser(c)

	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	if current.ID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return userLookupError(err)
	}

	isFollowing, err := h.followRepository.IsFollowing(ctx, current.ID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	if err := h.followRepository.CreateFollow(ctx, &models.Follow{FollowerID: current.ID, FollowingID: targetID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.notifyFollow(ctx, current, targetID)

	return c.JSON(http.StatusOK, echo.Map{"following": true})
}

func (h *FollowHandler) notifyFollow(ctx context.Context, actor *models.User, recipientID uint) {
	notif := &models.Notification{
		Type:        models.NotificationFollow,
		ActorID:     actor.ID,
		RecipientID: recipientID,
		TargetID:    strconv.FormatUint(uint64(actor.ID), 10),
		TargetType:  "user",
		Message:     actor.Username + " started following you",
	}
	if err := h.notificationRepository.CreateNotification(ctx, notif); err != nil {
		h.log.Warn("follow notification not stored", logger.Uint("recipient_id", recipientID), logger.Error(err))
	}
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	if err := h.followRepository.DeleteFollow(c.Request().Context(), currentUser(c).ID, targetID); err != nil {
		if errors.Is(err, repositories.ErrFollowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not following this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"following": false})
}

// GetFollowing lists the users a user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.listUsers(c, h.followRepository.GetFollowing)
}

// GetFollowers lists the users following a user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.listUsers(c, h.followRepository.GetFollowers)
}

func (h *FollowHandler) listUsers(c echo.Context, list func(context.Context, uint) ([]models.User, error)) error {
	ctx := c.Request().Context()
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	if _, err := h.userRepository.GetUserByID(ctx, id); err != nil {
		return userLookupError(err)
	}

	users, err := list(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}
	return c.JSON(http.StatusOK, compact)
}
