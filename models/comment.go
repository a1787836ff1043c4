package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Task      primitive.ObjectID `json:"task" bson:"task"`
	Author    primitive.ObjectID `json:"author" bson:"author"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type CommentInput struct {
	Content string `json:"content" validate:"required,notblank,max=2000"`
}
