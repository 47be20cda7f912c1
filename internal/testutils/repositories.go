// Package testutils holds in-memory repositories for handler and middleware tests.
package testutils

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Store bundles one in-memory implementation of every repository.
type Store struct {
	Users         *UserRepository
	Messages      *MessageRepository
	Likes         *LikeRepository
	Follows       *FollowRepository
	Notifications *NotificationRepository
}

func NewStore() *Store {
	users := &UserRepository{byID: map[uint]*models.User{}}
	return &Store{
		Users:         users,
		Messages:      &MessageRepository{byID: map[string]*models.Message{}},
		Likes:         &LikeRepository{liked: map[likeKey]time.Time{}},
		Follows:       &FollowRepository{edges: map[[2]uint]bool{}, Users: users},
		Notifications: &NotificationRepository{},
	}
}

// MustSignup stores a user whose password is "password".
func (s *Store) MustSignup(username string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	user := &models.User{
		Username: username,
		Email:    username + "@email.com",
		Password: string(hash),
		ImageURL: models.DefaultImageURL,
	}
	if err := s.Users.CreateUser(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

// MustPost stores a message written by user.
func (s *Store) MustPost(user *models.User, text string) *models.Message {
	msg := &models.Message{UserID: user.ID, Text: text}
	if err := s.Messages.CreateMessage(context.Background(), msg); err != nil {
		panic(err)
	}
	return msg
}

type UserRepository struct {
	mu     sync.Mutex
	byID   map[uint]*models.User
	nextID uint
}

func (r *UserRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(user, 0) {
		return repositories.ErrDuplicateUser
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.byID[user.ID] = &stored
	return nil
}

func (r *UserRepository) taken(user *models.User, except uint) bool {
	for id, u := range r.byID {
		if id == except {
			continue
		}
		if u.Username == user.Username || u.Email == user.Email {
			return true
		}
		if user.FirebaseUID != nil && u.FirebaseUID != nil && *u.FirebaseUID == *user.FirebaseUID {
			return true
		}
	}
	return false
}

func (r *UserRepository) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *UserRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *UserRepository) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid })
}

func (r *UserRepository) GetUsersByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := []models.User{}
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *UserRepository) GetUsers(_ context.Context) ([]models.User, error) {
	return r.filter(func(*models.User) bool { return true }), nil
}

func (r *UserRepository) filter(match func(*models.User) bool) []models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := []models.User{}
	for _, u := range r.byID {
		if match(u) {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

func (r *UserRepository) UpdateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if r.taken(user, user.ID) {
		return repositories.ErrDuplicateUser
	}
	user.UpdatedAt = time.Now()
	stored := *user
	r.byID[user.ID] = &stored
	return nil
}

func (r *UserRepository) DeleteUser(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *UserRepository) SearchUsers(_ context.Context, query string) ([]models.User, error) {
	q := strings.ToLower(query)
	return r.filter(func(u *models.User) bool { return strings.Contains(strings.ToLower(u.Username), q) }), nil
}

type MessageRepository struct {
	mu   sync.Mutex
	byID map[string]*models.Message
	tick time.Duration
}

func (r *MessageRepository) CreateMessage(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Strictly increasing timestamps keep ordering deterministic.
	r.tick++
	msg.ID = primitive.NewObjectID()
	msg.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(r.tick * time.Second)
	stored := *msg
	r.byID[msg.ID.Hex()] = &stored
	return nil
}

func (r *MessageRepository) GetMessageByID(_ context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MessageRepository) GetMessagesByIDs(_ context.Context, ids []string) ([]models.Message, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(func(m *models.Message) bool { return want[m.ID.Hex()] }, 0), nil
}

func (r *MessageRepository) GetMessagesByUserIDs(_ context.Context, userIDs []uint, limit int64) ([]models.Message, error) {
	want := map[uint]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	return r.filter(func(m *models.Message) bool { return want[m.UserID] }, limit), nil
}

func (r *MessageRepository) filter(match func(*models.Message) bool, limit int64) []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Message{}
	for _, m := range r.byID {
		if match(m) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func (r *MessageRepository) DeleteMessage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return repositories.ErrMessageNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MessageRepository) DeleteMessagesByUserID(_ context.Context, userID uint) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []string{}
	for id, m := range r.byID {
		if m.UserID == userID {
			ids = append(ids, id)
			delete(r.byID, id)
		}
	}
	return ids, nil
}

func (r *MessageRepository) SetLikes(_ context.Context, id string, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byID[id]; ok {
		m.LikesCount = int(count)
	}
	return nil
}

type likeKey struct {
	messageID string
	userID    uint
}

type LikeRepository struct {
	mu    sync.Mutex
	liked map[likeKey]time.Time
	seq   time.Duration
}

func (r *LikeRepository) ToggleLike(_ context.Context, messageID string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := likeKey{messageID, userID}
	if _, ok := r.liked[k]; ok {
		delete(r.liked, k)
		return false, nil
	}
	r.seq++
	r.liked[k] = time.Unix(0, 0).Add(r.seq)
	return true, nil
}

func (r *LikeRepository) HasUserLikedMessage(_ context.Context, messageID string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.liked[likeKey{messageID, userID}]
	return ok, nil
}

func (r *LikeRepository) GetLikesCountByMessageID(_ context.Context, messageID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.liked {
		if k.messageID == messageID {
			n++
		}
	}
	return n, nil
}

func (r *LikeRepository) GetLikedMessageIDs(_ context.Context, userID uint) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type entry struct {
		id string
		at time.Time
	}
	entries := []entry{}
	for k, at := range r.liked {
		if k.userID == userID {
			entries = append(entries, entry{k.messageID, at})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}

func (r *LikeRepository) DeleteLikesForMessages(_ context.Context, messageIDs []string) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range messageIDs {
		drop[id] = true
	}
	seen := map[uint]bool{}
	userIDs := []uint{}
	for k := range r.liked {
		if drop[k.messageID] {
			delete(r.liked, k)
			if !seen[k.userID] {
				seen[k.userID] = true
				userIDs = append(userIDs, k.userID)
			}
		}
	}
	return userIDs, nil
}

func (r *LikeRepository) DeleteLikesByUser(_ context.Context, userID uint) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	messageIDs := []string{}
	for k := range r.liked {
		if k.userID == userID {
			delete(r.liked, k)
			messageIDs = append(messageIDs, k.messageID)
		}
	}
	return messageIDs, nil
}

type FollowRepository struct {
	mu    sync.Mutex
	edges map[[2]uint]bool
	Users *UserRepository
}

func (r *FollowRepository) CreateFollow(_ context.Context, follow *models.Follow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[[2]uint{follow.FollowerID, follow.FollowingID}] = true
	return nil
}

func (r *FollowRepository) DeleteFollow(_ context.Context, followerID, followingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := [2]uint{followerID, followingID}
	if !r.edges[k] {
		return repositories.ErrFollowNotFound
	}
	delete(r.edges, k)
	return nil
}

func (r *FollowRepository) IsFollowing(_ context.Context, followerID, followingID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.edges[[2]uint{followerID, followingID}], nil
}

func (r *FollowRepository) ids(match func(k [2]uint) (uint, bool)) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []uint{}
	for k := range r.edges {
		if id, ok := match(k); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *FollowRepository) GetFollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	return r.ids(func(k [2]uint) (uint, bool) { return k[1], k[0] == userID }), nil
}

func (r *FollowRepository) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	ids := r.ids(func(k [2]uint) (uint, bool) { return k[0], k[1] == userID })
	return r.Users.GetUsersByIDs(ctx, ids)
}

func (r *FollowRepository) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	ids, _ := r.GetFollowingIDs(ctx, userID)
	return r.Users.GetUsersByIDs(ctx, ids)
}

type NotificationRepository struct {
	mu     sync.Mutex
	items  []models.Notification
	nextID uint
}

func (r *NotificationRepository) CreateNotification(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.items = append(r.items, *n)
	return nil
}

// All returns every stored notification, oldest first.
func (r *NotificationRepository) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.items))
	copy(out, r.items)
	return out
}

func (r *NotificationRepository) GetByRecipientID(_ context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mine := []models.Notification{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].RecipientID == recipientID {
			mine = append(mine, r.items[i])
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []models.Notification{}, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (r *NotificationRepository) GetUnreadCount(_ context.Context, recipientID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.RecipientID == recipientID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) MarkAsRead(_ context.Context, notificationID, recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == notificationID && r.items[i].RecipientID == recipientID {
			r.items[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *NotificationRepository) MarkAllAsRead(_ context.Context, recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].RecipientID == recipientID {
			r.items[i].IsRead = true
		}
	}
	return nil
}

var (
	_ repositories.UserRepository         = (*UserRepository)(nil)
	_ repositories.MessageRepository      = (*MessageRepository)(nil)
	_ repositories.LikeRepository         = (*LikeRepository)(nil)
	_ repositories.FollowRepository       = (*FollowRepository)(nil)
	_ repositories.NotificationRepository = (*NotificationRepository)(nil)
)
