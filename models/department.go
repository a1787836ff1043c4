package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultDepartmentName is used for tasks created without a department.
const DefaultDepartmentName = "None"

type Department struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name    string             `json:"name" bson:"name"`
	Company primitive.ObjectID `json:"company" bson:"company"`
}

type DepartmentInput struct {
	Name string `json:"name" validate:"required,notblank,max=60"`
}
