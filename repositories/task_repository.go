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

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Task, error)
	List(ctx context.Context, company primitive.ObjectID, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, company, id primitive.ObjectID) error
	// Image methods
	AddImages(ctx context.Context, id primitive.ObjectID, images []models.Image) error
	RemoveImage(ctx context.Context, id, fileID primitive.ObjectID) error
	// MarkOverdue flags open tasks due before now and returns how many changed.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type taskRepository struct {
	collection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) TaskRepository {
	return &taskRepository{
		collection: db.Collection("tasks"),
	}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	task.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, task)
	return err
}

func (r *taskRepository) GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "company": company}).Decode(&task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, company primitive.ObjectID, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{"company": company}
	if filter.Completed != nil {
		query["completed"] = *filter.Completed
	}
	if filter.AssignedTo != nil {
		query["assignedTo"] = *filter.AssignedTo
	}
	if filter.Department != nil {
		query["department"] = *filter.Department
	}

	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}, {Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update replaces the stored task so cleared optional fields are removed.
func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	filter := bson.M{"_id": task.ID, "company": task.Company}
	result, err := r.collection.ReplaceOne(ctx, filter, task)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", task.ID.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, company, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "company": company})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("task %s: %w", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (r *taskRepository) AddImages(ctx context.Context, id primitive.ObjectID, images []models.Image) error {
	update := bson.M{
		"$push": bson.M{
			"images": bson.M{"$each": images},
		},
		"$set": bson.M{
			"updatedAt": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (r *taskRepository) RemoveImage(ctx context.Context, id, fileID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{
			"images": bson.M{"fileId": fileID},
		},
		"$set": bson.M{
			"updatedAt": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (r *taskRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"completed": false,
		"isOverdue": bson.M{"$ne": true},
		"dueDate":   bson.M{"$lt": now},
	}
	update := bson.M{"$set": bson.M{"isOverdue": true, "updatedAt": now}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
