package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/warbler/internal/middleware"
	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// currentUser is non-nil behind middleware.RequireUser.
func currentUser(c echo.Context) *models.User {
	return middleware.CurrentUser(c)
}

func parseID(c echo.Context, param, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return uint(id), nil
}

func userLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func messageLookupError(err error) error {
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Message not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func pagination(c echo.Context, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = defaultLimit
	}
	return page, limit
}

// enricher attaches authors and the viewer's like state to messages.
type enricher struct {
	users repositories.UserRepository
	likes repositories.LikeRepository
}

func (e enricher) enrich(ctx context.Context, messages []models.Message, viewer *models.User) ([]models.EnrichedMessage, error) {
	authorIDs := make([]uint, 0, len(messages))
	seen := map[uint]bool{}
	for _, m := range messages {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			authorIDs = append(authorIDs, m.UserID)
		}
	}
	authors, err := e.users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.UserCompact, len(authors))
	for _, a := range authors {
		byID[a.ID] = a.ToCompact()
	}

	liked := map[string]bool{}
	if viewer != nil {
		if liked, err = repositories.LikedSetFor(ctx, e.likes, viewer.ID); err != nil {
			return nil, err
		}
	}

	out := make([]models.EnrichedMessage, len(messages))
	for i, m := range messages {
		out[i] = models.EnrichedMessage{
			Message: m,
			Author:  byID[m.UserID],
			IsLiked: liked[m.ID.Hex()],
		}
	}
	return out, nil
}

// syncLikesCount copies the stored like count of messageID onto the message,
// so a missed update is repaired by the next one.
func syncLikesCount(ctx context.Context, likes repositories.LikeRepository, messages repositories.MessageRepository, messageID string) error {
	count, err := likes.GetLikesCountByMessageID(ctx, messageID)
	if err != nil {
		return err
	}
	return messages.SetLikes(ctx, messageID, count)
}
