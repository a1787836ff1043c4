package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActionType string

const (
	ActionCreate     ActionType = "Create"
	ActionUpdate     ActionType = "Update"
	ActionComplete   ActionType = "Complete"
	ActionImage      ActionType = "Image"
	ActionDepartment ActionType = "Department"
	ActionAssign     ActionType = "Assign"
)

// History is one audit entry for a task.
type History struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Task       primitive.ObjectID `json:"task" bson:"task"`
	ChangedBy  primitive.ObjectID `json:"changedBy" bson:"changedBy"`
	ActionType ActionType         `json:"actionType" bson:"actionType"`
	Changes    []FieldChange      `json:"changes" bson:"changes"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
}

type FieldChange struct {
	Field    string `json:"field" bson:"field"`
	OldValue string `json:"oldValue,omitempty" bson:"oldValue,omitempty"`
	NewValue string `json:"newValue,omitempty" bson:"newValue,omitempty"`
	File     *Image `json:"file,omitempty" bson:"file,omitempty"`
}
