package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Weekdays lists the keys of a schedule's day grid, sunday first.
var Weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

type Schedule struct {
	ID            primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	UniqueID      string                 `json:"uniqueId" bson:"uniqueId"`
	Company       primitive.ObjectID     `json:"company" bson:"company"`
	EmployeeName  string                 `json:"employeeName" bson:"employeeName"`
	WeekStartDate time.Time              `json:"weekStartDate" bson:"weekStartDate"`
	Days          map[string]ScheduleDay `json:"days" bson:"days"`
	CreatedAt     time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt" bson:"updatedAt"`
}

type ScheduleDay struct {
	Date      time.Time  `json:"date" bson:"date"`
	StartTime *time.Time `json:"startTime" bson:"startTime"`
	EndTime   *time.Time `json:"endTime" bson:"endTime"`
}

// DayInput uses YYYY-MM-DD for the date and HH:MM for the times. Empty
// times mean the employee is off that day.
type DayInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"omitempty,datetime=15:04"`
}

type ScheduleInput struct {
	EmployeeName string              `json:"employeeName" validate:"required,notblank"`
	Days         map[string]DayInput `json:"days" validate:"required,dive"`
}

type ScheduleDaysInput struct {
	Days map[string]DayInput `json:"days" validate:"required,dive"`
}
