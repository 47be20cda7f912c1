package repositories

import (
	"context"

	"github.com/anonto42/warbler/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// ToggleLike flips the like of userID on messageID and reports the new state.
	ToggleLike(ctx context.Context, messageID string, userID uint) (bool, error)
	HasUserLikedMessage(ctx context.Context, messageID string, userID uint) (bool, error)
	GetLikesCountByMessageID(ctx context.Context, messageID string) (int64, error)
	GetLikedMessageIDs(ctx context.Context, userID uint) ([]string, error)
	// DeleteLikesForMessages removes every like on messageIDs and returns the users who had liked them.
	DeleteLikesForMessages(ctx context.Context, messageIDs []string) ([]uint, error)
	// DeleteLikesByUser removes every like of userID and returns the messages it pointed at.
	DeleteLikesByUser(ctx context.Context, userID uint) ([]string, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// ToggleLike deletes an existing like or creates one, inside one transaction.
// An insert that loses to a concurrent toggle of the same pair waits for it
// to commit, then removes the row that toggle created.
func (r *PostgresLikeRepository) ToggleLike(ctx context.Context, messageID string, userID uint) (bool, error) {
	var favorited bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unlike := func() (bool, error) {
			res := tx.Where("message_id = ? AND user_id = ?", messageID, userID).Delete(&models.Like{})
			return res.RowsAffected > 0, res.Error
		}

		removed, err := unlike()
		if err != nil {
			return err
		}
		if removed {
			favorited = false
			return nil
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{MessageID: messageID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			favorited = true
			return nil
		}

		if _, err := unlike(); err != nil {
			return err
		}
		favorited = false
		return nil
	})
	return favorited, err
}

// HasUserLikedMessage checks if a user has liked a specific message
func (r *PostgresLikeRepository) HasUserLikedMessage(ctx context.Context, messageID string, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("message_id = ? AND user_id = ?", messageID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikesCountByMessageID retrieves the count of likes for a specific message
func (r *PostgresLikeRepository) GetLikesCountByMessageID(ctx context.Context, messageID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("message_id = ?", messageID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetLikedMessageIDs lists the messages a user liked, most recent like first
func (r *PostgresLikeRepository) GetLikedMessageIDs(ctx context.Context, userID uint) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("message_id", &ids).Error
	return ids, err
}

func (r *PostgresLikeRepository) DeleteLikesForMessages(ctx context.Context, messageIDs []string) ([]uint, error) {
	userIDs := []uint{}
	if len(messageIDs) == 0 {
		return userIDs, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Like{}).Where("message_id IN ?", messageIDs).Distinct().Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}
		return tx.Where("message_id IN ?", messageIDs).Delete(&models.Like{}).Error
	})
	return userIDs, err
}

func (r *PostgresLikeRepository) DeleteLikesByUser(ctx context.Context, userID uint) ([]string, error) {
	messageIDs := []string{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Like{}).Where("user_id = ?", userID).Pluck("message_id", &messageIDs).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&models.Like{}).Error
	})
	return messageIDs, err
}
