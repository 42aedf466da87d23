package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arogyalabs/bitebot/internal/models"
)

type InteractionRepository interface {
	Insert(ctx context.Context, it *models.Interaction) error
	ListRecent(ctx context.Context, limit int64) ([]models.Interaction, error)
}

type interactionRepo struct {
	col *mongo.Collection
}

func NewInteractionRepo(db *mongo.Database) InteractionRepository {
	return &interactionRepo{col: db.Collection("user_interactions")}
}

func (r *interactionRepo) Insert(ctx context.Context, it *models.Interaction) error {
	if it.Timestamp.IsZero() {
		it.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, it)
	return err
}

func (r *interactionRepo) ListRecent(ctx context.Context, limit int64) ([]models.Interaction, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Interaction
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
