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

type SessionRepository interface {
	Create(ctx context.Context, s *models.ChatSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.ChatSession, error)
	// MostRecentActive returns the newest active session for a user, or
	// utils.ErrNotFound when none exists.
	MostRecentActive(ctx context.Context, userID string) (*models.ChatSession, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.ChatSession, error)
	// Touch advances last_activity, increments message_count, and replaces
	// the preview after a message append.
	Touch(ctx context.Context, sessionID, preview string, at time.Time) error
	Deactivate(ctx context.Context, sessionID, userID string) error
	DeactivateAll(ctx context.Context, userID string) (int64, error)
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("chat_sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.ChatSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.LastActivity.IsZero() {
		s.LastActivity = s.CreatedAt
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var s models.ChatSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) MostRecentActive(ctx context.Context, userID string) (*models.ChatSession, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "last_activity", Value: -1}})

	var s models.ChatSession
	err := r.col.FindOne(ctx, bson.M{"user_id": userID, "is_active": true}, opts).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.ChatSession, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "last_activity", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ChatSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) Touch(ctx context.Context, sessionID, preview string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$set": bson.M{"last_activity": at.UTC(), "preview": preview},
			"$inc": bson.M{"message_count": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) Deactivate(ctx context.Context, sessionID, userID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "user_id": userID},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) DeactivateAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
