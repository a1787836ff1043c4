package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string

const (
	RequestOpen       RequestStatus = "Open"
	RequestInProgress RequestStatus = "In Progress"
	RequestResolved   RequestStatus = "Resolved"
)

type ChangeRequest struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title        string             `json:"title" bson:"title"`
	Description  string             `json:"description" bson:"description"`
	Requester    primitive.ObjectID `json:"requester" bson:"requester"`
	AffectedUser string             `json:"affectedUser" bson:"affectedUser"`
	Department   string             `json:"department" bson:"department"`
	Company      primitive.ObjectID `json:"company" bson:"company"`
	Status       RequestStatus      `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

type ChangeRequestInput struct {
	Title        string `json:"title" validate:"required,notblank"`
	Description  string `json:"description" validate:"required,notblank"`
	AffectedUser string `json:"affectedUser"`
	Department   string `json:"department"`
}

type RequestStatusInput struct {
	Status RequestStatus `json:"status" validate:"required,oneof=Open 'In Progress' Resolved"`
}
