package repository

import (
	"context"

	"retailtasks/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Department, error)
	FindByName(ctx context.Context, company primitive.ObjectID, name string) (*models.Department, error)
	ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.Department, error)
}

type departmentRepository struct {
	collection *mongo.Collection
}

func NewDepartmentRepository(db *mongo.Database) DepartmentRepository {
	return &departmentRepository{
		collection: db.Collection("departments"),
	}
}

func (r *departmentRepository) Create(ctx context.Context, department *models.Department) error {
	department.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, department)
	return err
}

// GetByID only matches departments owned by company.
func (r *departmentRepository) GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.Department, error) {
	var department models.Department
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "company": company}).Decode(&department)
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *departmentRepository) FindByName(ctx context.Context, company primitive.ObjectID, name string) (*models.Department, error) {
	var department models.Department
	err := r.collection.FindOne(ctx, bson.M{"name": name, "company": company}).Decode(&department)
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *departmentRepository) ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.Department, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"company": company}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	departments := []models.Department{}
	if err = cursor.All(ctx, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}
