package repository

import (
	"context"

	"retailtasks/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error)
	GetByCode(ctx context.Context, code string) (*models.Company, error)
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

type companyRepository struct {
	collection *mongo.Collection
}

func NewCompanyRepository(db *mongo.Database) CompanyRepository {
	return &companyRepository{
		collection: db.Collection("companies"),
	}
}

// Create inserts company. Duplicate name, code or address surface as a
// mongo duplicate key error.
func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	company.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, company)
	return err
}

func (r *companyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error) {
	var company models.Company
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) GetByCode(ctx context.Context, code string) (*models.Company, error) {
	var company models.Company
	if err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
