package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arogyalabs/bitebot/internal/models"
	"github.com/arogyalabs/bitebot/internal/utils"
)

type SolvedRepository interface {
	Insert(ctx context.Context, sq *models.SolvedQuestion) error
	GetByID(ctx context.Context, id string) (*models.SolvedQuestion, error)
	ListActive(ctx context.Context, limit int64) ([]models.SolvedQuestion, error)
	Update(ctx context.Context, id, question, answer string, at time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

type solvedRepo struct {
	col *mongo.Collection
}

func NewSolvedRepo(db *mongo.Database) SolvedRepository {
	return &solvedRepo{col: db.Collection("solved_questions")}
}

func (r *solvedRepo) Insert(ctx context.Context, sq *models.SolvedQuestion) error {
	if sq.Timestamp.IsZero() {
		sq.Timestamp = time.Now().UTC()
	}
	if sq.Status == "" {
		sq.Status = models.SolvedActive
	}
	res, err := r.col.InsertOne(ctx, sq)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		sq.ID = oid
	}
	return nil
}

func (r *solvedRepo) GetByID(ctx context.Context, id string) (*models.SolvedQuestion, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}

	var sq models.SolvedQuestion
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&sq)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &sq, err
}

func (r *solvedRepo) ListActive(ctx context.Context, limit int64) ([]models.SolvedQuestion, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"status": models.SolvedActive}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SolvedQuestion
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *solvedRepo) Update(ctx context.Context, id, question, answer string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"question":   question,
			"answer":     answer,
			"updated_at": at.UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *solvedRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"status":     models.SolvedDeleted,
			"deleted_at": at.UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *solvedRepo) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{
		"status":    models.SolvedActive,
		"timestamp": bson.M{"$gte": since.UTC()},
	})
}
