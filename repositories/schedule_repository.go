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

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Schedule, error)
	Exists(ctx context.Context, company primitive.ObjectID, employeeName string, weekStart time.Time) (bool, error)
	ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.Schedule, error)
	UpdateDays(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, company, id primitive.ObjectID) error
}

type scheduleRepository struct {
	collection *mongo.Collection
}

func NewScheduleRepository(db *mongo.Database) ScheduleRepository {
	return &scheduleRepository{
		collection: db.Collection("schedules"),
	}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, schedule)
	return err
}

func (r *scheduleRepository) GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Schedule, error) {
	var schedule models.Schedule
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "company": company}).Decode(&schedule)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) Exists(ctx context.Context, company primitive.ObjectID, employeeName string, weekStart time.Time) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"company":       company,
		"employeeName":  employeeName,
		"weekStartDate": weekStart,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *scheduleRepository) ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.Schedule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "weekStartDate", Value: -1}, {Key: "employeeName", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"company": company}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	schedules := []models.Schedule{}
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) UpdateDays(ctx context.Context, schedule *models.Schedule) error {
	update := bson.M{"$set": bson.M{
		"days":          schedule.Days,
		"weekStartDate": schedule.WeekStartDate,
		"updatedAt":     schedule.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": schedule.ID, "company": schedule.Company}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("schedule %s: %w", schedule.ID.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, company, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "company": company})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("schedule %s: %w", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}
