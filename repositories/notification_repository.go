package repository

import (
	"context"
	"fmt"

	"retailtasks/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Notification, error)
	MarkRead(ctx context.Context, user, id primitive.ObjectID) error
	MarkReadByLink(ctx context.Context, user primitive.ObjectID, link string) error
	DeleteByUser(ctx context.Context, user primitive.ObjectID) error
	CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error)
}

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		collection: db.Collection("notifications"),
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

func (r *notificationRepository) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, user, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user": user},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification %s: %w", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (r *notificationRepository) MarkReadByLink(ctx context.Context, user primitive.ObjectID, link string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"user": user, "link": link, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, user primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user": user})
	return err
}

func (r *notificationRepository) CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user": user, "read": false})
}
