package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/labstack/echo/v4"
)

// feedSize is how many warbles the home timeline shows.
const feedSize = 100

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	messageRepository repositories.MessageRepository
	userRepository    repositories.UserRepository
	followRepository  repositories.FollowRepository
	likeRepository    repositories.LikeRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
	likeRepo repositories.LikeRepository,
) *FeedHandler {
	return &FeedHandler{
		messageRepository: messageRepo,
		userRepository:    userRepo,
		followRepository:  followRepo,
		likeRepository:    likeRepo,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the newest warbles of the current user and everyone they follow
func (h *FeedHandler) GetFeed(c echo.Context) error {
	feed, err := h.feed(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feed)
}

func (h *FeedHandler) feed(ctx context.Context, user *models.User) ([]models.EnrichedMessage, error) {
	following, err := h.followRepository.GetFollowingIDs(ctx, user.ID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authors := append(following, user.ID)

	messages, err := h.messageRepository.GetMessagesByUserIDs(ctx, authors, feedSize)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	enriched, err := enricher{users: h.userRepository, likes: h.likeRepository}.enrich(ctx, messages, user)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return enriched, nil
}
