package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/warbler/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for message data operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessageByID(ctx context.Context, id string) (*models.Message, error)
	GetMessagesByIDs(ctx context.Context, ids []string) ([]models.Message, error)
	GetMessagesByUserIDs(ctx context.Context, userIDs []uint, limit int64) ([]models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessagesByUserID(ctx context.Context, userID uint) ([]string, error)
	SetLikes(ctx context.Context, id string, count int64) error
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

// CreateMessage assigns the ID and timestamp and inserts the message
func (r *MongoMessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.Timestamp = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

// GetMessageByID returns ErrMessageNotFound for malformed and unknown IDs alike.
func (r *MongoMessageRepository) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMessageNotFound
	}

	var msg models.Message
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&msg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// GetMessagesByIDs returns the messages newest first; unknown IDs are skipped.
func (r *MongoMessageRepository) GetMessagesByIDs(ctx context.Context, ids []string) ([]models.Message, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	messages := []models.Message{}
	if len(objIDs) == 0 {
		return messages, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, 0)
}

// GetMessagesByUserIDs returns the newest messages written by any of userIDs.
func (r *MongoMessageRepository) GetMessagesByUserIDs(ctx context.Context, userIDs []uint, limit int64) ([]models.Message, error) {
	if len(userIDs) == 0 {
		return []models.Message{}, nil
	}
	return r.find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}}, limit)
}

func (r *MongoMessageRepository) find(ctx context.Context, filter bson.M, limit int64) ([]models.Message, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteMessage deletes a message by ID from MongoDB
func (r *MongoMessageRepository) DeleteMessage(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrMessageNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// DeleteMessagesByUserID removes every message of a user and returns their IDs.
func (r *MongoMessageRepository) DeleteMessagesByUserID(ctx context.Context, userID uint) ([]string, error) {
	messages, err := r.find(ctx, bson.M{"user_id": userID}, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID.Hex()
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, fmt.Errorf("delete messages of user %d: %w", userID, err)
	}
	return ids, nil
}

// SetLikes overwrites the denormalized likes_count of a message
func (r *MongoMessageRepository) SetLikes(ctx context.Context, id string, count int64) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrMessageNotFound
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"likes_count": count}})
	return err
}
