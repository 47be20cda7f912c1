package handlers

import (
	"net/http"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles HTTP requests related to warbles
type MessageHandler struct {
	messageRepository repositories.MessageRepository
	likeRepository    repositories.LikeRepository // Likes go with the message
	userRepository    repositories.UserRepository
	log               logger.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageRepo repositories.MessageRepository, likeRepo repositories.LikeRepository, userRepo repositories.UserRepository, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageRepository: messageRepo,
		likeRepository:    likeRepo,
		userRepository:    userRepo,
		log:               log,
	}
}

// RegisterMessageRoutes registers message-related routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/messages", h.CreateMessage)
	g.GET("/messages/:message_id", h.GetMessage)
	g.DELETE("/messages/:message_id", h.DeleteMessage)
}

// CreateMessage posts a new warble as the current user
func (h *MessageHandler) CreateMessage(c echo.Context) error {
	var req models.CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	msg := &models.Message{UserID: currentUser(c).ID, Text: req.Text}
	if err := h.messageRepository.CreateMessage(c.Request().Context(), msg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, msg)
}

// GetMessage retrieves a warble with its author
func (h *MessageHandler) GetMessage(c echo.Context) error {
	ctx := c.Request().Context()
	msg, err := h.messageRepository.GetMessageByID(ctx, c.Param("message_id"))
	if err != nil {
		return messageLookupError(err)
	}

	enriched, err := enricher{users: h.userRepository, likes: h.likeRepository}.enrich(ctx, []models.Message{*msg}, currentUser(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, enriched[0])
}

// DeleteMessage deletes a warble and its likes; only the author may do so
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	ctx := c.Request().Context()
	msg, err := h.messageRepository.GetMessageByID(ctx, c.Param("message_id"))
	if err != nil {
		return messageLookupError(err)
	}
	if msg.UserID != currentUser(c).ID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this message")
	}

	messageID := msg.ID.Hex()
	if err := h.messageRepository.DeleteMessage(ctx, messageID); err != nil {
		return messageLookupError(err)
	}
	if _, err := h.likeRepository.DeleteLikesForMessages(ctx, []string{messageID}); err != nil {
		h.log.Error("likes of deleted message kept", logger.String("message_id", messageID), logger.Error(err))
	}
	return c.NoContent(http.StatusNoContent)
}
