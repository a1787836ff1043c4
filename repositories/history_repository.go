package repository

import (
	"context"

	"retailtasks/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type HistoryRepository interface {
	Create(ctx context.Context, entry *models.History) error
	ListByTask(ctx context.Context, task primitive.ObjectID) ([]models.History, error)
	DeleteByTask(ctx context.Context, task primitive.ObjectID) error
}

type historyRepository struct {
	collection *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) HistoryRepository {
	return &historyRepository{
		collection: db.Collection("histories"),
	}
}

func (r *historyRepository) Create(ctx context.Context, entry *models.History) error {
	entry.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// ListByTask returns the newest entries first.
func (r *historyRepository) ListByTask(ctx context.Context, task primitive.ObjectID) ([]models.History, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"task": task}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.History{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *historyRepository) DeleteByTask(ctx context.Context, task primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"task": task})
	return err
}
