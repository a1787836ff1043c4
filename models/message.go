package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Sender    primitive.ObjectID  `json:"sender" bson:"sender"`
	Recipient primitive.ObjectID  `json:"recipient" bson:"recipient"`
	Subject   string              `json:"subject" bson:"subject"`
	Content   string              `json:"content" bson:"content"`
	Read      bool                `json:"read" bson:"read"`
	ThreadID  string              `json:"threadId" bson:"threadId"`
	ReplyTo   *primitive.ObjectID `json:"replyTo,omitempty" bson:"replyTo,omitempty"`
	Company   primitive.ObjectID  `json:"company" bson:"company"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}

// ThreadSummary is the newest message of a thread as shown in inbox/sent lists.
type ThreadSummary struct {
	ThreadID  string             `json:"threadId" bson:"_id"`
	MessageID primitive.ObjectID `json:"messageId" bson:"messageId"`
	Sender    primitive.ObjectID `json:"sender,omitempty" bson:"sender,omitempty"`
	Recipient primitive.ObjectID `json:"recipient,omitempty" bson:"recipient,omitempty"`
	Subject   string             `json:"subject" bson:"subject"`
	Content   string             `json:"content" bson:"content"`
	Read      bool               `json:"read" bson:"read"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type Inbox struct {
	Threads     []ThreadSummary `json:"threads"`
	UnreadCount int64           `json:"unreadCount"`
}

type MessageInput struct {
	Recipient     string `json:"recipient" validate:"required"`
	Subject       string `json:"subject" validate:"required,notblank,max=200"`
	Content       string `json:"content" validate:"required,notblank"`
	ReplyToThread string `json:"replyToThread"`
}

// NewMessagesDigest is the polling payload for the new-message indicator.
type NewMessagesDigest struct {
	UnreadCount int64             `json:"unreadCount"`
	NewMessages []NewMessageBrief `json:"newMessages"`
}

type NewMessageBrief struct {
	ID         primitive.ObjectID `json:"id"`
	ThreadID   string             `json:"threadId"`
	Subject    string             `json:"subject"`
	SenderName string             `json:"senderName"`
	CreatedAt  time.Time          `json:"createdAt"`
}
