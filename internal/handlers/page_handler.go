package handlers

import (
	"net/http"

	"github.com/anonto42/warbler/internal/middleware"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/views"
	"github.com/labstack/echo/v4"
)

// PageHandler renders the HTML pages that carry the like controls
type PageHandler struct {
	feeds    *FeedHandler
	likes    *LikeHandler
	messages *MessageHandler
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(feeds *FeedHandler, likes *LikeHandler, messages *MessageHandler) *PageHandler {
	return &PageHandler{feeds: feeds, likes: likes, messages: messages}
}

// RegisterPageRoutes registers the HTML pages
func (h *PageHandler) RegisterPageRoutes(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/messages/:message_id", h.ShowMessage, middleware.RequireUser())
	e.GET("/users/:user_id/likes", h.ShowLikes, middleware.RequireUser())
}

// Home shows the timeline, or the welcome page to visitors
func (h *PageHandler) Home(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return views.Render(c, http.StatusOK, views.AnonHome())
	}

	feed, err := h.feeds.feed(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return views.Render(c, http.StatusOK, views.Home(user, feed, middleware.CSRFToken(c)))
}

func (h *PageHandler) ShowMessage(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	msg, err := h.messages.messageRepository.GetMessageByID(ctx, c.Param("message_id"))
	if err != nil {
		return messageLookupError(err)
	}
	enriched, err := enricher{users: h.messages.userRepository, likes: h.messages.likeRepository}.enrich(ctx, []models.Message{*msg}, user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return views.Render(c, http.StatusOK, views.MessageDetail(user, enriched[0], middleware.CSRFToken(c)))
}

func (h *PageHandler) ShowLikes(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	ownerID, err := parseID(c, "user_id", "user")
	if err != nil {
		return err
	}
	owner, err := h.likes.userRepository.GetUserByID(ctx, ownerID)
	if err != nil {
		return userLookupError(err)
	}
	liked, err := h.likes.likedMessages(ctx, ownerID, user)
	if err != nil {
		return err
	}
	return views.Render(c, http.StatusOK, views.Likes(user, owner, liked, middleware.CSRFToken(c)))
}
