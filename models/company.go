package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Company struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Address     Address            `json:"address" bson:"address"`
	Code        string             `json:"code" bson:"code"`
	StoreNumber string             `json:"storeNumber" bson:"storeNumber"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

type Address struct {
	Street  string `json:"street" bson:"street" validate:"required"`
	City    string `json:"city" bson:"city" validate:"required"`
	State   string `json:"state" bson:"state" validate:"required"`
	ZipCode string `json:"zipCode" bson:"zipCode" validate:"required"`
}

// CompanyInput is the body of a company registration.
type CompanyInput struct {
	Name    string `json:"name" validate:"required"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
}

// CompanyOverview is a company together with today's analytics.
type CompanyOverview struct {
	Company   *Company   `json:"company"`
	Analytics *Analytics `json:"analytics"`
}
