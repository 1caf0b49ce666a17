package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/repositories"
	"github.com/yoockh/careermentor/internal/utils"
)

const HistoryCollection = "interview_history"

type historyRepo struct {
	col *mongo.Collection
}

func NewHistoryRepo(db *mongo.Database) repositories.HistoryRepository {
	return &historyRepo{col: db.Collection(HistoryCollection)}
}

func (r *historyRepo) Append(ctx context.Context, s *models.SessionSummary) error {
	if s.Date.IsZero() {
		s.Date = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *historyRepo) ListByUser(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	// ObjectIDs grow with insertion time
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.SessionSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *historyRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	var s models.SessionSummary
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
