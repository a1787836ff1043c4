package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTask    NotificationType = "task"
	NotificationMessage NotificationType = "message"
)

type Notification struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	User      primitive.ObjectID  `json:"user" bson:"user"`
	Message   string              `json:"message" bson:"message"`
	Type      NotificationType    `json:"type" bson:"type"`
	RelatedID *primitive.ObjectID `json:"relatedId,omitempty" bson:"relatedId,omitempty"`
	Link      string              `json:"link,omitempty" bson:"link,omitempty"`
	Read      bool                `json:"read" bson:"read"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}
