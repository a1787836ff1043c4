package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Analytics is the aggregate for one company on one day. Department and
// user entries are keyed by the hex form of their ObjectID.
type Analytics struct {
	ID              primitive.ObjectID          `json:"id" bson:"_id,omitempty"`
	Company         primitive.ObjectID          `json:"company" bson:"company"`
	Date            time.Time                   `json:"date" bson:"date"`
	DailyStats      DailyStats                  `json:"dailyStats" bson:"dailyStats"`
	DepartmentStats map[string]*DepartmentStats `json:"departmentStats" bson:"departmentStats"`
	UserStats       map[string]*UserStats       `json:"userStats" bson:"userStats"`
	PriorityStats   PriorityStats               `json:"priorityStats" bson:"priorityStats"`
}

// CompletionStats is the counter and running-average bundle kept for every
// scope: company, department, user and priority.
type CompletionStats struct {
	TasksCreated          int     `json:"tasksCreated" bson:"tasksCreated"`
	TasksCompleted        int     `json:"tasksCompleted" bson:"tasksCompleted"`
	OverdueCount          int     `json:"overdueCount" bson:"overdueCount"`
	AverageCompletionTime float64 `json:"averageCompletionTime" bson:"averageCompletionTime"` // hours
	OverdueRate           float64 `json:"overdueRate" bson:"overdueRate"`                     // percent
}

// DailyStats holds company-wide counters. OverdueCount is the number of
// tasks completed past their due date today.
type DailyStats struct {
	CompletionStats `bson:",inline"`
	TasksViewed     int `json:"tasksViewed" bson:"tasksViewed"`
	TasksUpdated    int `json:"tasksUpdated" bson:"tasksUpdated"`
	TasksDeleted    int `json:"tasksDeleted" bson:"tasksDeleted"`
	UserLogins      int `json:"userLogins" bson:"userLogins"`
	ProfileUpdates  int `json:"profileUpdates" bson:"profileUpdates"`
	PasswordChanges int `json:"passwordChanges" bson:"passwordChanges"`
}

type DepartmentStats struct {
	CompletionStats    `bson:",inline"`
	ModificationsCount int `json:"modificationsCount" bson:"modificationsCount"`
	DeletionsCount     int `json:"deletionsCount" bson:"deletionsCount"`
}

type UserStats struct {
	CompletionStats `bson:",inline"`
	TasksAssigned   int        `json:"tasksAssigned" bson:"tasksAssigned"`
	LastLogin       *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	LoginCount      int        `json:"loginCount" bson:"loginCount"`
}

// PriorityStats uses TasksCreated as the running total of tasks per level.
type PriorityStats struct {
	High   CompletionStats `json:"high" bson:"high"`
	Medium CompletionStats `json:"medium" bson:"medium"`
	Low    CompletionStats `json:"low" bson:"low"`
}

// Priority levels used as analytics keys.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// AnalyticsSections are the top-level fields a custom range may select.
var AnalyticsSections = []string{"dailyStats", "departmentStats", "userStats", "priorityStats"}

// NewAnalytics returns an empty aggregate for company on the day containing date.
func NewAnalytics(company primitive.ObjectID, date time.Time) *Analytics {
	return &Analytics{
		Company:         company,
		Date:            StartOfDay(date),
		DepartmentStats: map[string]*DepartmentStats{},
		UserStats:       map[string]*UserStats{},
	}
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Normalize fills maps that are nil after decoding a sparse document.
func (a *Analytics) Normalize() {
	if a.DepartmentStats == nil {
		a.DepartmentStats = map[string]*DepartmentStats{}
	}
	if a.UserStats == nil {
		a.UserStats = map[string]*UserStats{}
	}
}

// Department returns the entry for id, creating it when missing.
func (a *Analytics) Department(id primitive.ObjectID) *DepartmentStats {
	a.Normalize()
	key := id.Hex()
	s, ok := a.DepartmentStats[key]
	if !ok || s == nil {
		s = &DepartmentStats{}
		a.DepartmentStats[key] = s
	}
	return s
}

// User returns the entry for id, creating it when missing.
func (a *Analytics) User(id primitive.ObjectID) *UserStats {
	a.Normalize()
	key := id.Hex()
	s, ok := a.UserStats[key]
	if !ok || s == nil {
		s = &UserStats{}
		a.UserStats[key] = s
	}
	return s
}

// Priority returns the bundle for a normalized level; unknown levels map to medium.
func (p *PriorityStats) Priority(level string) *CompletionStats {
	switch level {
	case PriorityHigh:
		return &p.High
	case PriorityLow:
		return &p.Low
	default:
		return &p.Medium
	}
}

// RecordCreated counts one new task in the scope.
func (s *CompletionStats) RecordCreated() {
	s.TasksCreated++
}

// RemoveCreated undoes RecordCreated without going below zero.
func (s *CompletionStats) RemoveCreated() {
	if s.TasksCreated > 0 {
		s.TasksCreated--
	}
}

// RecordCompletion folds one completion into the scope. A sample of zero or
// less still counts as a completion but leaves the average untouched. The
// overdue rate is recomputed against the new completion count.
func (s *CompletionStats) RecordCompletion(sampleHours float64, overdue bool) {
	n := s.TasksCompleted
	s.TasksCompleted = n + 1

	if sampleHours > 0 {
		if n == 0 {
			s.AverageCompletionTime = sampleHours
		} else {
			s.AverageCompletionTime = (s.AverageCompletionTime*float64(n) + sampleHours) / float64(s.TasksCompleted)
		}
	}

	if overdue {
		s.OverdueCount++
	}
	s.OverdueRate = float64(s.OverdueCount) / float64(s.TasksCompleted) * 100
}

// CompletionSample returns the hours between creation and completion,
// clamped at zero. A zero createdAt yields zero so the sample is skipped.
func CompletionSample(createdAt, completedAt time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	hours := completedAt.Sub(createdAt).Hours()
	if hours < 0 {
		return 0
	}
	return hours
}

// NormalizePriority maps an importance label such as "High Priority" to
// high, medium or low. Anything unrecognised is medium.
func NormalizePriority(importance string) string {
	level := strings.TrimSpace(strings.ToLower(importance))
	level = strings.TrimSuffix(level, " priority")
	switch level {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return level
	}
	return PriorityMedium
}

// DefaultDepartmentStats and DefaultUserStats are returned when a scope has
// no entry for the day.
func DefaultDepartmentStats() DepartmentStats { return DepartmentStats{} }

func DefaultUserStats() UserStats { return UserStats{} }

// AnalyticsRangeInput is the body of a custom range query.
type AnalyticsRangeInput struct {
	StartDate string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"endDate" validate:"required,datetime=2006-01-02"`
	Metrics   []string `json:"metrics" validate:"required,min=1,dive,oneof=dailyStats departmentStats userStats priorityStats"`
}
