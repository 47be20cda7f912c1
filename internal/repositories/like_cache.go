package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	likedSetTTL = 10 * time.Minute
	// likedVersionTTL must outlive any read-through fill in flight.
	likedVersionTTL = 24 * time.Hour
	// likedSetSentinel keeps the set alive for users that liked nothing.
	likedSetSentinel = "-"
)

var errStaleFill = errors.New("liked set changed during fill")

func likedSetKey(userID uint) string {
	return fmt.Sprintf("warbler:liked:%d", userID)
}

// likedVersionKey counts the invalidations of a user's liked set.
func likedVersionKey(userID uint) string {
	return fmt.Sprintf("warbler:liked:%d:version", userID)
}

// CachedLikeRepository keeps each user's liked message IDs in a Redis set in
// front of another LikeRepository. Redis failures fall back to the inner one.
type CachedLikeRepository struct {
	LikeRepository
	client *redis.Client
	log    logger.Logger
}

// NewCachedLikeRepository returns inner unchanged when client is nil.
func NewCachedLikeRepository(inner LikeRepository, client *redis.Client, log logger.Logger) LikeRepository {
	if client == nil {
		return inner
	}
	return &CachedLikeRepository{LikeRepository: inner, client: client, log: log}
}

func (r *CachedLikeRepository) ToggleLike(ctx context.Context, messageID string, userID uint) (bool, error) {
	favorited, err := r.LikeRepository.ToggleLike(ctx, messageID, userID)
	if err != nil {
		return false, err
	}
	r.invalidate(ctx, userID)
	return favorited, nil
}

func (r *CachedLikeRepository) HasUserLikedMessage(ctx context.Context, messageID string, userID uint) (bool, error) {
	key := likedSetKey(userID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err == nil && exists == 1 {
		liked, err := r.client.SIsMember(ctx, key, messageID).Result()
		if err == nil {
			return liked, nil
		}
	}
	if err != nil {
		r.log.Warn("liked cache lookup failed", logger.Uint("user_id", userID), logger.Error(err))
	}
	return r.LikeRepository.HasUserLikedMessage(ctx, messageID, userID)
}

func (r *CachedLikeRepository) DeleteLikesForMessages(ctx context.Context, messageIDs []string) ([]uint, error) {
	userIDs, err := r.LikeRepository.DeleteLikesForMessages(ctx, messageIDs)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, userIDs...)
	return userIDs, nil
}

func (r *CachedLikeRepository) DeleteLikesByUser(ctx context.Context, userID uint) ([]string, error) {
	messageIDs, err := r.LikeRepository.DeleteLikesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, userID)
	return messageIDs, nil
}

// GetLikedMessageIDs reads through to the inner repository and caches the
// result, unless the set was invalidated while the read was in flight.
func (r *CachedLikeRepository) GetLikedMessageIDs(ctx context.Context, userID uint) ([]string, error) {
	version, verr := r.version(ctx, userID)
	ids, err := r.LikeRepository.GetLikedMessageIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		r.fill(ctx, userID, version, ids)
	}
	return ids, nil
}

// LikedSet returns the liked IDs of userID as a set, from Redis when warm.
func (r *CachedLikeRepository) LikedSet(ctx context.Context, userID uint) (map[string]bool, error) {
	members, err := r.client.SMembers(ctx, likedSetKey(userID)).Result()
	if err == nil && len(members) > 0 {
		set := make(map[string]bool, len(members))
		for _, m := range members {
			if m != likedSetSentinel {
				set[m] = true
			}
		}
		return set, nil
	}
	if err != nil {
		r.log.Warn("liked cache read failed", logger.Uint("user_id", userID), logger.Error(err))
	}

	ids, err := r.GetLikedMessageIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSet(ids), nil
}

func (r *CachedLikeRepository) version(ctx context.Context, userID uint) (int64, error) {
	v, err := r.client.Get(ctx, likedVersionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		r.log.Warn("liked cache version read failed", logger.Uint("user_id", userID), logger.Error(err))
		return 0, err
	}
	return v, nil
}

// fill stores ids as the liked set of userID only while its version is
// still the one read before ids were loaded.
func (r *CachedLikeRepository) fill(ctx context.Context, userID uint, version int64, ids []string) {
	key, versionKey := likedSetKey(userID), likedVersionKey(userID)
	members := make([]interface{}, 0, len(ids)+1)
	members = append(members, likedSetSentinel)
	for _, id := range ids {
		members = append(members, id)
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SAdd(ctx, key, members...)
			pipe.Expire(ctx, key, likedSetTTL)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		r.log.Debug("liked cache fill skipped", logger.Uint("user_id", userID))
	default:
		r.log.Warn("liked cache fill failed", logger.Uint("user_id", userID), logger.Error(err))
	}
}

// invalidate drops the liked sets of userIDs and bumps their versions so
// that fills started earlier are discarded.
func (r *CachedLikeRepository) invalidate(ctx context.Context, userIDs ...uint) {
	if len(userIDs) == 0 {
		return
	}
	pipe := r.client.TxPipeline()
	for _, id := range userIDs {
		pipe.Incr(ctx, likedVersionKey(id))
		pipe.Expire(ctx, likedVersionKey(id), likedVersionTTL)
		pipe.Del(ctx, likedSetKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn("liked cache invalidate failed", logger.Int("users", len(userIDs)), logger.Error(err))
	}
}

// LikedSetFor returns the liked IDs of userID as a set, using the Redis
// cache when repo is a CachedLikeRepository.
func LikedSetFor(ctx context.Context, repo LikeRepository, userID uint) (map[string]bool, error) {
	if cached, ok := repo.(*CachedLikeRepository); ok {
		return cached.LikedSet(ctx, userID)
	}
	ids, err := repo.GetLikedMessageIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSet(ids), nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
