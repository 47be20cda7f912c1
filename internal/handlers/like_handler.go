package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/middleware"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/anonto42/warbler/internal/views"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	messageRepository      repositories.MessageRepository // To keep likes_count in step
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	log                    logger.Logger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	log logger.Logger,
) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		messageRepository:      messageRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		log:                    log,
	}
}

// RegisterToggleRoutes registers the JSON toggle endpoint and its HTML form fallback.
func (h *LikeHandler) RegisterToggleRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.POST("/api/messages/:message_id/like", h.ToggleLike, mw...)
	e.POST("/messages/:message_id/like", h.ToggleLikeForm, mw...)
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.GET("/messages/:message_id/likes/count", h.GetLikesCount)
	g.GET("/messages/:message_id/likes/status", h.GetLikeStatus)
	g.GET("/users/:id/likes", h.GetUserLikes)
}

// ToggleLike flips the current user's like and answers {"favorited": bool}.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	_, favorited, err := h.toggle(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.LikeToggleResponse{Favorited: favorited})
}

// ToggleLikeForm serves browsers without script: htmx requests get the
// re-rendered like form, plain form posts are sent back where they came from.
func (h *LikeHandler) ToggleLikeForm(c echo.Context) error {
	messageID, favorited, err := h.toggle(c)
	if err != nil {
		return err
	}
	if c.Request().Header.Get("HX-Request") == "true" {
		return views.Render(c, http.StatusOK, views.LikeForm(messageID, favorited, middleware.CSRFToken(c)))
	}
	return c.Redirect(http.StatusSeeOther, localReferer(c.Request()))
}

func (h *LikeHandler) toggle(c echo.Context) (string, bool, error) {
	ctx := c.Request().Context()
	user := currentUser(c)

	msg, err := h.messageRepository.GetMessageByID(ctx, c.Param("message_id"))
	if err != nil {
		return "", false, messageLookupError(err)
	}
	messageID := msg.ID.Hex()

	favorited, err := h.likeRepository.ToggleLike(ctx, messageID, user.ID)
	if err != nil {
		return "", false, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := syncLikesCount(ctx, h.likeRepository, h.messageRepository, messageID); err != nil {
		h.log.Warn("likes count not updated", logger.String("message_id", messageID), logger.Error(err))
	}
	if favorited && msg.UserID != user.ID {
		h.notifyLike(ctx, user, msg)
	}

	h.log.Debug("like toggled",
		logger.String("message_id", messageID),
		logger.Uint("user_id", user.ID),
		logger.Bool("favorited", favorited),
	)
	return messageID, favorited, nil
}

func (h *LikeHandler) notifyLike(ctx context.Context, actor *models.User, msg *models.Message) {
	notif := &models.Notification{
		Type:        models.NotificationLike,
		ActorID:     actor.ID,
		RecipientID: msg.UserID,
		TargetID:    msg.ID.Hex(),
		TargetType:  "message",
		Message:     actor.Username + " liked your warble",
	}
	if err := h.notificationRepository.CreateNotification(ctx, notif); err != nil {
		h.log.Warn("like notification not stored", logger.String("message_id", notif.TargetID), logger.Error(err))
	}
}

// localReferer returns the path of a same-host Referer, or "/".
func localReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

// GetLikesCount retrieves the total number of likes for a message
func (h *LikeHandler) GetLikesCount(c echo.Context) error {
	ctx := c.Request().Context()
	msg, err := h.messageRepository.GetMessageByID(ctx, c.Param("message_id"))
	if err != nil {
		return messageLookupError(err)
	}

	count, err := h.likeRepository.GetLikesCountByMessageID(ctx, msg.ID.Hex())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"message_id": msg.ID.Hex(), "likes_count": count})
}

// GetLikeStatus reports whether the current user likes a message
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)
	msg, err := h.messageRepository.GetMessageByID(ctx, c.Param("message_id"))
	if err != nil {
		return messageLookupError(err)
	}

	favorited, err := h.likeRepository.HasUserLikedMessage(ctx, msg.ID.Hex(), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"message_id": msg.ID.Hex(), "user_id": user.ID, "favorited": favorited})
}

// GetUserLikes lists the messages a user liked, most recent like first
func (h *LikeHandler) GetUserLikes(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	liked, err := h.likedMessages(c.Request().Context(), id, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, liked)
}

func (h *LikeHandler) likedMessages(ctx context.Context, ownerID uint, viewer *models.User) ([]models.EnrichedMessage, error) {
	if _, err := h.userRepository.GetUserByID(ctx, ownerID); err != nil {
		return nil, userLookupError(err)
	}
	ids, err := h.likeRepository.GetLikedMessageIDs(ctx, ownerID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	messages, err := h.messageRepository.GetMessagesByIDs(ctx, ids)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Keep the like order rather than the message order.
	byID := make(map[string]models.Message, len(messages))
	for _, m := range messages {
		byID[m.ID.Hex()] = m
	}
	ordered := make([]models.Message, 0, len(messages))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}

	enriched, err := enricher{users: h.userRepository, likes: h.likeRepository}.enrich(ctx, ordered, viewer)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return enriched, nil
}
