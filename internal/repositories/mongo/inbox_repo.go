package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arogyalabs/bitebot/internal/models"
)

// inboxDocID: the doctor inbox is a single shared document.
const inboxDocID = "doctor-inbox"

type InboxRepository interface {
	// Get returns the inbox, creating an empty one on first access.
	Get(ctx context.Context) (*models.DoctorInbox, error)
	// PushQuestion atomically appends one entry to the question array.
	PushQuestion(ctx context.Context, q models.InboxQuestion) error
	// Save replaces the whole document. Answer-map mutations go through a
	// read-modify-write cycle rather than positional updates.
	Save(ctx context.Context, inbox *models.DoctorInbox) error
}

type inboxRepo struct {
	col *mongo.Collection
}

func NewInboxRepo(db *mongo.Database) InboxRepository {
	return &inboxRepo{col: db.Collection("doctor_inbox")}
}

func (r *inboxRepo) Get(ctx context.Context) (*models.DoctorInbox, error) {
	var inbox models.DoctorInbox
	err := r.col.FindOne(ctx, bson.M{"_id": inboxDocID}).Decode(&inbox)
	if errors.Is(err, mongo.ErrNoDocuments) {
		inbox = models.DoctorInbox{
			ID:        inboxDocID,
			Questions: []models.InboxQuestion{},
			Answers:   map[string]string{},
		}
		if _, err := r.col.InsertOne(ctx, &inbox); err != nil {
			return nil, err
		}
		return &inbox, nil
	}
	if err != nil {
		return nil, err
	}
	if inbox.Answers == nil {
		inbox.Answers = map[string]string{}
	}
	return &inbox, nil
}

func (r *inboxRepo) PushQuestion(ctx context.Context, q models.InboxQuestion) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": inboxDocID},
		bson.M{"$push": bson.M{"qn": q}},
		opts,
	)
	return err
}

func (r *inboxRepo) Save(ctx context.Context, inbox *models.DoctorInbox) error {
	inbox.ID = inboxDocID
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": inboxDocID}, inbox, opts)
	return err
}
