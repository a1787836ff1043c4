package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Importance string

const (
	ImportanceHigh   Importance = "High Priority"
	ImportanceMedium Importance = "Medium Priority"
	ImportanceLow    Importance = "Low Priority"
)

func (i Importance) Valid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

type Task struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description" bson:"description"`
	DueDate     time.Time           `json:"dueDate" bson:"dueDate"`
	Importance  Importance          `json:"importance" bson:"importance"`
	Location    string              `json:"location" bson:"location"`
	Department  primitive.ObjectID  `json:"department" bson:"department"`
	AssignedTo  *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	Author      primitive.ObjectID  `json:"author" bson:"author"`
	Company     primitive.ObjectID  `json:"company" bson:"company"`
	Images      []Image             `json:"images" bson:"images"`
	Completed   bool                `json:"completed" bson:"completed"`
	CompletedAt *time.Time          `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	IsOverdue   bool                `json:"isOverdue" bson:"isOverdue"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Image is a task photo kept in the image store.
type Image struct {
	FileID   primitive.ObjectID `json:"fileId" bson:"fileId"`
	Filename string             `json:"filename" bson:"filename"`
	URL      string             `json:"url" bson:"url"`
}

// RefreshOverdue recomputes IsOverdue. Completed tasks keep their last value.
func (t *Task) RefreshOverdue(now time.Time) {
	if !t.Completed && !t.DueDate.IsZero() {
		t.IsOverdue = t.DueDate.Before(now)
	}
}

// IsAssignee reports whether userID is the task's assignee.
func (t *Task) IsAssignee(userID primitive.ObjectID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// TaskInput is the body for creating or updating a task. Department is a
// department id, "new" together with NewDepartment, or empty for the default.
type TaskInput struct {
	Title         string `json:"title" validate:"required,notblank"`
	Description   string `json:"description" validate:"required,notblank"`
	DueDate       string `json:"dueDate" validate:"required,duedate"`
	Importance    string `json:"importance" validate:"required,importance"`
	Location      string `json:"location" validate:"required,notblank"`
	Department    string `json:"department"`
	NewDepartment string `json:"newDepartment"`
	AssignedTo    string `json:"assignedTo"`
}

type TaskFilter struct {
	Completed  *bool
	AssignedTo *primitive.ObjectID
	Department *primitive.ObjectID
}

var dueDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDueDate accepts RFC3339, datetime-local and plain date values.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", raw)
}
