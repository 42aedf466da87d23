package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arogyalabs/bitebot/internal/models"
	"github.com/arogyalabs/bitebot/internal/utils"
)

type MessageRepository interface {
	Insert(ctx context.Context, m *models.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.ChatMessage, error)
	First(ctx context.Context, sessionID string) (*models.ChatMessage, error)
}

type messageRepo struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepository {
	return &messageRepo{col: db.Collection("chat_messages")}
}

func (r *messageRepo) Insert(ctx context.Context, m *models.ChatMessage) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *messageRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ChatMessage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) First(ctx context.Context, sessionID string) (*models.ChatMessage, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	var m models.ChatMessage
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}, opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &m, err
}
