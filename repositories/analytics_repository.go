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

type AnalyticsRepository interface {
	FindDay(ctx context.Context, company primitive.ObjectID, day time.Time) (*models.Analytics, error)
	Insert(ctx context.Context, analytics *models.Analytics) error
	// Update applies $set and $inc to the document with the given id. Keys
	// are dotted paths, so fields not named keep whatever concurrent writers
	// put there.
	Update(ctx context.Context, id primitive.ObjectID, set bson.M, inc map[string]int) error
	// Increment applies $inc counters and $set fields to the day document,
	// creating it when missing.
	Increment(ctx context.Context, company primitive.ObjectID, day time.Time, inc map[string]int, set map[string]interface{}) error
	// FindRange returns day documents in [start, end], oldest first. A non
	// empty sections list limits the returned top-level fields.
	FindRange(ctx context.Context, company primitive.ObjectID, start, end time.Time, sections []string) ([]models.Analytics, error)
}

type analyticsRepository struct {
	collection *mongo.Collection
}

func NewAnalyticsRepository(db *mongo.Database) AnalyticsRepository {
	return &analyticsRepository{
		collection: db.Collection("analytics"),
	}
}

func (r *analyticsRepository) FindDay(ctx context.Context, company primitive.ObjectID, day time.Time) (*models.Analytics, error) {
	var analytics models.Analytics
	err := r.collection.FindOne(ctx, bson.M{"company": company, "date": day}).Decode(&analytics)
	if err != nil {
		return nil, err
	}
	analytics.Normalize()
	return &analytics, nil
}

func (r *analyticsRepository) Insert(ctx context.Context, analytics *models.Analytics) error {
	analytics.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, analytics)
	return err
}

func (r *analyticsRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M, inc map[string]int) error {
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if len(update) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("analytics %s: %w", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (r *analyticsRepository) Increment(ctx context.Context, company primitive.ObjectID, day time.Time, inc map[string]int, set map[string]interface{}) error {
	update := bson.M{}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(update) == 0 {
		return nil
	}

	filter := bson.M{"company": company, "date": day}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *analyticsRepository) FindRange(ctx context.Context, company primitive.ObjectID, start, end time.Time, sections []string) ([]models.Analytics, error) {
	filter := bson.M{
		"company": company,
		"date":    bson.M{"$gte": start, "$lte": end},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	if len(sections) > 0 {
		projection := bson.M{"company": 1, "date": 1}
		for _, section := range sections {
			projection[section] = 1
		}
		opts.SetProjection(projection)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	days := []models.Analytics{}
	if err = cursor.All(ctx, &days); err != nil {
		return nil, err
	}
	for i := range days {
		days[i].Normalize()
	}
	return days, nil
}
