package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/repositories"
	"github.com/anonto42/warbler/internal/testutils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readHook calls after once, right after the next read of liked IDs.
type readHook struct {
	repositories.LikeRepository
	after func()
}

func (h *readHook) GetLikedMessageIDs(ctx context.Context, userID uint) ([]string, error) {
	ids, err := h.LikeRepository.GetLikedMessageIDs(ctx, userID)
	if after := h.after; after != nil {
		h.after = nil
		after()
	}
	return ids, err
}

func newCachedLikes(t *testing.T) (*miniredis.Miniredis, *readHook, repositories.LikeRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &readHook{LikeRepository: testutils.NewStore().Likes}
	repo := repositories.NewCachedLikeRepository(inner, client, logger.Nop())
	require.IsType(t, &repositories.CachedLikeRepository{}, repo)
	return mr, inner, repo
}

func TestCachedLikeRepository_WarmSet(t *testing.T) {
	mr, inner, repo := newCachedLikes(t)
	ctx := context.Background()

	_, err := repo.ToggleLike(ctx, "m1", 1)
	require.NoError(t, err)

	set, err := repositories.LikedSetFor(ctx, repo, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true}, set)

	members, err := mr.Members("warbler:liked:1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"-", "m1"}, members)
	assert.Equal(t, 10*time.Minute, mr.TTL("warbler:liked:1"))

	// A write behind the cache's back stays invisible until invalidation.
	_, err = inner.ToggleLike(ctx, "m2", 1)
	require.NoError(t, err)

	set, err = repositories.LikedSetFor(ctx, repo, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true}, set)

	liked, err := repo.HasUserLikedMessage(ctx, "m2", 1)
	require.NoError(t, err)
	assert.False(t, liked)
	liked, err = repo.HasUserLikedMessage(ctx, "m1", 1)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestCachedLikeRepository_EmptySetIsCached(t *testing.T) {
	mr, inner, repo := newCachedLikes(t)
	ctx := context.Background()

	set, err := repositories.LikedSetFor(ctx, repo, 5)
	require.NoError(t, err)
	assert.Empty(t, set)

	members, err := mr.Members("warbler:liked:5")
	require.NoError(t, err)
	assert.Equal(t, []string{"-"}, members)

	_, err = inner.ToggleLike(ctx, "m1", 5)
	require.NoError(t, err)

	liked, err := repo.HasUserLikedMessage(ctx, "m1", 5)
	require.NoError(t, err)
	assert.False(t, liked, "answered from the cached empty set")
}

func TestCachedLikeRepository_ToggleInvalidates(t *testing.T) {
	mr, _, repo := newCachedLikes(t)
	ctx := context.Background()

	_, err := repositories.LikedSetFor(ctx, repo, 1)
	require.NoError(t, err)
	require.True(t, mr.Exists("warbler:liked:1"))

	favorited, err := repo.ToggleLike(ctx, "m1", 1)
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.False(t, mr.Exists("warbler:liked:1"))
	version, err := mr.Get("warbler:liked:1:version")
	require.NoError(t, err)
	assert.Equal(t, "1", version)

	liked, err := repo.HasUserLikedMessage(ctx, "m1", 1)
	require.NoError(t, err)
	assert.True(t, liked)
}

// A toggle landing between the database read and the cache write must win.
func TestCachedLikeRepository_FillAfterToggleIsDiscarded(t *testing.T) {
	mr, inner, repo := newCachedLikes(t)
	ctx := context.Background()

	inner.after = func() {
		favorited, err := repo.ToggleLike(ctx, "m1", 1)
		require.NoError(t, err)
		require.True(t, favorited)
	}
	set, err := repositories.LikedSetFor(ctx, repo, 1)
	require.NoError(t, err)
	assert.Empty(t, set, "the read itself predates the toggle")
	assert.False(t, mr.Exists("warbler:liked:1"))

	liked, err := repo.HasUserLikedMessage(ctx, "m1", 1)
	require.NoError(t, err)
	assert.True(t, liked)

	set, err = repositories.LikedSetFor(ctx, repo, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true}, set)
	assert.True(t, mr.Exists("warbler:liked:1"))
}

func TestCachedLikeRepository_DeletesInvalidate(t *testing.T) {
	mr, _, repo := newCachedLikes(t)
	ctx := context.Background()

	for _, like := range []struct {
		messageID string
		userID    uint
	}{{"m1", 1}, {"m1", 2}, {"m2", 3}} {
		_, err := repo.ToggleLike(ctx, like.messageID, like.userID)
		require.NoError(t, err)
	}
	for _, userID := range []uint{1, 2, 3} {
		_, err := repositories.LikedSetFor(ctx, repo, userID)
		require.NoError(t, err)
	}

	userIDs, err := repo.DeleteLikesForMessages(ctx, []string{"m1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2}, userIDs)
	assert.False(t, mr.Exists("warbler:liked:1"))
	assert.False(t, mr.Exists("warbler:liked:2"))
	assert.True(t, mr.Exists("warbler:liked:3"))

	messageIDs, err := repo.DeleteLikesByUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, messageIDs)
	assert.False(t, mr.Exists("warbler:liked:3"))

	set, err := repositories.LikedSetFor(ctx, repo, 3)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestNewCachedLikeRepository_NilClient(t *testing.T) {
	inner := testutils.NewStore().Likes
	repo := repositories.NewCachedLikeRepository(inner, nil, logger.Nop())
	assert.Same(t, inner, repo)
}

// An unreachable Redis must not break likes; every read falls through.
func TestCachedLikeRepository_RedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	inner := testutils.NewStore().Likes
	repo := repositories.NewCachedLikeRepository(inner, client, logger.Nop())
	require.IsType(t, &repositories.CachedLikeRepository{}, repo)

	ctx := context.Background()
	favorited, err := repo.ToggleLike(ctx, "m1", 1)
	require.NoError(t, err)
	assert.True(t, favorited)

	liked, err := repo.HasUserLikedMessage(ctx, "m1", 1)
	require.NoError(t, err)
	assert.True(t, liked)

	set, err := repositories.LikedSetFor(ctx, repo, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true}, set)

	favorited, err = repo.ToggleLike(ctx, "m1", 1)
	require.NoError(t, err)
	assert.False(t, favorited)

	set, err = repositories.LikedSetFor(ctx, repo, 1)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestLikedSetFor_Uncached(t *testing.T) {
	likes := testutils.NewStore().Likes
	ctx := context.Background()
	_, err := likes.ToggleLike(ctx, "a", 3)
	require.NoError(t, err)
	_, err = likes.ToggleLike(ctx, "b", 3)
	require.NoError(t, err)
	_, err = likes.ToggleLike(ctx, "c", 4)
	require.NoError(t, err)

	set, err := repositories.LikedSetFor(ctx, likes, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, set)
}
