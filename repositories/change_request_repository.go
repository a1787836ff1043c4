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

type ChangeRequestRepository interface {
	Create(ctx context.Context, request *models.ChangeRequest) error
	GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.ChangeRequest, error)
	ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.ChangeRequest, error)
	UpdateStatus(ctx context.Context, company, id primitive.ObjectID, status models.RequestStatus) error
}

type changeRequestRepository struct {
	collection *mongo.Collection
}

func NewChangeRequestRepository(db *mongo.Database) ChangeRequestRepository {
	return &changeRequestRepository{
		collection: db.Collection("changerequests"),
	}
}

func (r *changeRequestRepository) Create(ctx context.Context, request *models.ChangeRequest) error {
	request.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, request)
	return err
}

func (r *changeRequestRepository) GetByID(ctx context.Context, company, id primitive.ObjectID) (*models.ChangeRequest, error) {
	var request models.ChangeRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "company": company}).Decode(&request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *changeRequestRepository) ListByCompany(ctx context.Context, company primitive.ObjectID) ([]models.ChangeRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"company": company}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.ChangeRequest{}
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *changeRequestRepository) UpdateStatus(ctx context.Context, company, id primitive.ObjectID, status models.RequestStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "company": company},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("change request %s: %w", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}
