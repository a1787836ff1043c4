package repository

import (
	"context"
	"fmt"
	"time"

	"retailtasks/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListThread(ctx context.Context, user primitive.ObjectID, threadID string) ([]models.Message, error)
	MarkThreadRead(ctx context.Context, user primitive.ObjectID, threadID string) error
	// Thread summaries
	Inbox(ctx context.Context, user primitive.ObjectID) ([]models.ThreadSummary, error)
	Sent(ctx context.Context, user primitive.ObjectID) ([]models.ThreadSummary, error)
	CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error)
	RecentUnread(ctx context.Context, user primitive.ObjectID, since time.Time, limit int64) ([]models.Message, error)
}

type messageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		collection: db.Collection("messages"),
	}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, message)
	return err
}

func (r *messageRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var message models.Message
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("message %s: %w", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

// ListThread returns the thread messages user sent or received, oldest first.
func (r *messageRepository) ListThread(ctx context.Context, user primitive.ObjectID, threadID string) ([]models.Message, error) {
	filter := bson.M{
		"threadId": threadID,
		"$or": []bson.M{
			{"sender": user},
			{"recipient": user},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
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

func (r *messageRepository) MarkThreadRead(ctx context.Context, user primitive.ObjectID, threadID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"threadId": threadID, "recipient": user, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (r *messageRepository) Inbox(ctx context.Context, user primitive.ObjectID) ([]models.ThreadSummary, error) {
	return r.latestPerThread(ctx, bson.M{"recipient": user})
}

func (r *messageRepository) Sent(ctx context.Context, user primitive.ObjectID) ([]models.ThreadSummary, error) {
	return r.latestPerThread(ctx, bson.M{"sender": user})
}

// latestPerThread groups matching messages by thread and keeps the newest.
func (r *messageRepository) latestPerThread(ctx context.Context, match bson.M) ([]models.ThreadSummary, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},

		// Newest first so $first picks the latest message of each thread
		bson.D{{Key: "$sort", Value: bson.M{"createdAt": -1}}},

		bson.D{{Key: "$group", Value: bson.M{
			"_id":       "$threadId",
			"messageId": bson.M{"$first": "$_id"},
			"sender":    bson.M{"$first": "$sender"},
			"recipient": bson.M{"$first": "$recipient"},
			"subject":   bson.M{"$first": "$subject"},
			"content":   bson.M{"$first": "$content"},
			"read":      bson.M{"$first": "$read"},
			"createdAt": bson.M{"$first": "$createdAt"},
		}}},

		bson.D{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	threads := []models.ThreadSummary{}
	if err = cursor.All(ctx, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipient": user, "read": false})
}

func (r *messageRepository) RecentUnread(ctx context.Context, user primitive.ObjectID, since time.Time, limit int64) ([]models.Message, error) {
	filter := bson.M{
		"recipient": user,
		"read":      false,
		"createdAt": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
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
