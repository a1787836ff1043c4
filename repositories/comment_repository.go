package repository

import (
	"context"

	"retailtasks/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByTask(ctx context.Context, task primitive.ObjectID) ([]models.Comment, error)
	DeleteByTask(ctx context.Context, task primitive.ObjectID) error
}

type commentRepository struct {
	collection *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) CommentRepository {
	return &commentRepository{
		collection: db.Collection("comments"),
	}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

func (r *commentRepository) ListByTask(ctx context.Context, task primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"task": task}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) DeleteByTask(ctx context.Context, task primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"task": task})
	return err
}
