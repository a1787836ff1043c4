package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AnalyticsService maintains the per-company, per-day analytics documents.
// Task lifecycle updates load today's document, fold the event in and write
// back only the fields that changed. Plain counters go through atomic
// increments instead.
type AnalyticsService interface {
	EnsureToday(ctx context.Context, company primitive.ObjectID) (*models.Analytics, error)
	// Task lifecycle
	RecordTaskCreated(ctx context.Context, task *models.Task) error
	RecordTaskCompleted(ctx context.Context, task *models.Task) error
	RecordTaskModified(ctx context.Context, task, previous *models.Task) error
	RecordTaskDeleted(ctx context.Context, task *models.Task) error
	// Counters
	RecordTaskViewed(ctx context.Context, company primitive.ObjectID) error
	RecordLogin(ctx context.Context, user *models.User) error
	RecordProfileUpdate(ctx context.Context, company primitive.ObjectID) error
	RecordPasswordChange(ctx context.Context, company primitive.ObjectID) error
	AddUser(ctx context.Context, company, user primitive.ObjectID) error
	// Reads
	Today(ctx context.Context, company primitive.ObjectID) (*models.Analytics, error)
	Range(ctx context.Context, company primitive.ObjectID, start, end time.Time, sections []string) ([]models.Analytics, error)
	RealTime(ctx context.Context, company primitive.ObjectID) (models.DailyStats, error)
	UserStats(ctx context.Context, company, user primitive.ObjectID) (models.UserStats, error)
	DepartmentStats(ctx context.Context, company, department primitive.ObjectID) (models.DepartmentStats, error)
	ExportCSV(ctx context.Context, company primitive.ObjectID, start, end time.Time, w io.Writer) error
}

type analyticsService struct {
	repo        repository.AnalyticsRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	now         func() time.Time
}

func NewAnalyticsService(repo repository.AnalyticsRepository, users repository.UserRepository, departments repository.DepartmentRepository) AnalyticsService {
	return &analyticsService{
		repo:        repo,
		users:       users,
		departments: departments,
		now:         time.Now,
	}
}

func (s *analyticsService) today() time.Time {
	return models.StartOfDay(s.now())
}

// EnsureToday returns today's document, creating it with an entry for every
// department and user of the company when it does not exist yet.
func (s *analyticsService) EnsureToday(ctx context.Context, company primitive.ObjectID) (*models.Analytics, error) {
	day := s.today()

	analytics, err := s.repo.FindDay(ctx, company, day)
	if err == nil {
		return analytics, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}

	analytics = models.NewAnalytics(company, day)

	departments, err := s.departments.ListByCompany(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	for _, d := range departments {
		analytics.Department(d.ID)
	}

	users, err := s.users.ListByCompany(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		analytics.User(u.ID)
	}

	if err := s.repo.Insert(ctx, analytics); err != nil {
		// Another request created the day first.
		if mongo.IsDuplicateKeyError(err) {
			return s.repo.FindDay(ctx, company, day)
		}
		return nil, fmt.Errorf("failed to create analytics: %w", err)
	}
	return analytics, nil
}

// update folds apply into today's document. Only leaves apply changed are
// written, so a counter bumped by increment between the load and the write
// is kept. Leaves that apply creates with a zero value go out as $inc 0,
// which adds the field without resetting a concurrent write to it.
func (s *analyticsService) update(ctx context.Context, company primitive.ObjectID, apply func(a *models.Analytics)) error {
	analytics, err := s.EnsureToday(ctx, company)
	if err != nil {
		return err
	}

	before, err := flattenAnalytics(analytics)
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}
	apply(analytics)
	after, err := flattenAnalytics(analytics)
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}

	set := bson.M{}
	inc := map[string]int{}
	for path, value := range after {
		old, existed := before[path]
		switch {
		case existed && old.Equal(value):
		case !existed && zeroNumber(value):
			inc[path] = 0
		default:
			set[path] = value
		}
	}
	if len(set) == 0 && len(inc) == 0 {
		return nil
	}

	if err := s.repo.Update(ctx, analytics.ID, set, inc); err != nil {
		return fmt.Errorf("failed to save analytics: %w", err)
	}
	return nil
}

// flattenAnalytics encodes a as dotted leaf paths. Empty sub-documents have
// no leaves.
func flattenAnalytics(a *models.Analytics) (map[string]bson.RawValue, error) {
	raw, err := bson.Marshal(a)
	if err != nil {
		return nil, err
	}
	leaves := map[string]bson.RawValue{}
	if err := flattenDocument("", raw, leaves); err != nil {
		return nil, err
	}
	return leaves, nil
}

func flattenDocument(prefix string, doc bson.Raw, leaves map[string]bson.RawValue) error {
	elements, err := doc.Elements()
	if err != nil {
		return err
	}
	for _, e := range elements {
		path := prefix + e.Key()
		value := e.Value()
		if sub, ok := value.DocumentOK(); ok {
			if err := flattenDocument(path+".", sub, leaves); err != nil {
				return err
			}
			continue
		}
		leaves[path] = value
	}
	return nil
}

func zeroNumber(v bson.RawValue) bool {
	if i, ok := v.Int32OK(); ok {
		return i == 0
	}
	if i, ok := v.Int64OK(); ok {
		return i == 0
	}
	if f, ok := v.DoubleOK(); ok {
		return f == 0
	}
	return false
}

func (s *analyticsService) RecordTaskCreated(ctx context.Context, task *models.Task) error {
	return s.update(ctx, task.Company, func(a *models.Analytics) {
		a.DailyStats.RecordCreated()
		a.PriorityStats.Priority(models.NormalizePriority(string(task.Importance))).RecordCreated()

		if !task.Department.IsZero() {
			a.Department(task.Department).RecordCreated()
		}
		if !task.Author.IsZero() {
			a.User(task.Author).RecordCreated()
		}
		if task.AssignedTo != nil {
			a.User(*task.AssignedTo).TasksAssigned++
		}
	})
}

// RecordTaskCompleted folds one completion into the company, department,
// assignee and priority scopes. The task counts as overdue when it is
// completed after its due date.
func (s *analyticsService) RecordTaskCompleted(ctx context.Context, task *models.Task) error {
	completedAt := s.now()
	if task.CompletedAt != nil {
		completedAt = *task.CompletedAt
	}
	sample := models.CompletionSample(task.CreatedAt, completedAt)
	overdue := !task.DueDate.IsZero() && task.DueDate.Before(completedAt)

	return s.update(ctx, task.Company, func(a *models.Analytics) {
		a.DailyStats.RecordCompletion(sample, overdue)
		a.PriorityStats.Priority(models.NormalizePriority(string(task.Importance))).RecordCompletion(sample, overdue)

		if !task.Department.IsZero() {
			a.Department(task.Department).RecordCompletion(sample, overdue)
		}
		if task.AssignedTo != nil {
			a.User(*task.AssignedTo).RecordCompletion(sample, overdue)
		}
	})
}

func (s *analyticsService) RecordTaskModified(ctx context.Context, task, previous *models.Task) error {
	return s.update(ctx, task.Company, func(a *models.Analytics) {
		a.DailyStats.TasksUpdated++

		if !task.Department.IsZero() {
			a.Department(task.Department).ModificationsCount++
		}
		if task.AssignedTo != nil && (previous == nil || !previous.IsAssignee(*task.AssignedTo)) {
			a.User(*task.AssignedTo).TasksAssigned++
		}
	})
}

// RecordTaskDeleted takes the task back out of the created counters. The
// counters never go below zero.
func (s *analyticsService) RecordTaskDeleted(ctx context.Context, task *models.Task) error {
	return s.update(ctx, task.Company, func(a *models.Analytics) {
		a.DailyStats.TasksDeleted++
		a.DailyStats.RemoveCreated()
		a.PriorityStats.Priority(models.NormalizePriority(string(task.Importance))).RemoveCreated()

		if !task.Department.IsZero() {
			dept := a.Department(task.Department)
			dept.RemoveCreated()
			dept.DeletionsCount++
		}
		if author, ok := a.UserStats[task.Author.Hex()]; ok && author != nil {
			author.RemoveCreated()
		}
	})
}

// increment makes sure the day exists with its department and user entries
// before bumping counters, so the upsert never creates a bare document.
func (s *analyticsService) increment(ctx context.Context, company primitive.ObjectID, inc map[string]int, set map[string]interface{}) error {
	if _, err := s.EnsureToday(ctx, company); err != nil {
		return err
	}
	if err := s.repo.Increment(ctx, company, s.today(), inc, set); err != nil {
		return fmt.Errorf("failed to increment analytics: %w", err)
	}
	return nil
}

func (s *analyticsService) RecordTaskViewed(ctx context.Context, company primitive.ObjectID) error {
	return s.increment(ctx, company, map[string]int{"dailyStats.tasksViewed": 1}, nil)
}

func (s *analyticsService) RecordLogin(ctx context.Context, user *models.User) error {
	key := "userStats." + user.ID.Hex()
	return s.increment(ctx, user.Company,
		map[string]int{
			"dailyStats.userLogins": 1,
			key + ".loginCount":     1,
		},
		map[string]interface{}{
			key + ".lastLogin": s.now(),
		},
	)
}

func (s *analyticsService) RecordProfileUpdate(ctx context.Context, company primitive.ObjectID) error {
	return s.increment(ctx, company, map[string]int{"dailyStats.profileUpdates": 1}, nil)
}

func (s *analyticsService) RecordPasswordChange(ctx context.Context, company primitive.ObjectID) error {
	return s.increment(ctx, company, map[string]int{"dailyStats.passwordChanges": 1}, nil)
}

// AddUser gives a newly registered user an entry in today's document.
func (s *analyticsService) AddUser(ctx context.Context, company, user primitive.ObjectID) error {
	return s.update(ctx, company, func(a *models.Analytics) {
		a.User(user)
	})
}

// Today returns today's document, or an empty one when nothing happened yet.
func (s *analyticsService) Today(ctx context.Context, company primitive.ObjectID) (*models.Analytics, error) {
	day := s.today()
	analytics, err := s.repo.FindDay(ctx, company, day)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewAnalytics(company, day), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}
	return analytics, nil
}

func (s *analyticsService) Range(ctx context.Context, company primitive.ObjectID, start, end time.Time, sections []string) ([]models.Analytics, error) {
	for _, section := range sections {
		if !validSection(section) {
			return nil, utils.BadRequest(fmt.Sprintf("Unknown analytics metric %q", section))
		}
	}
	if end.Before(start) {
		return nil, utils.BadRequest("End date must not be before start date")
	}

	days, err := s.repo.FindRange(ctx, company, models.StartOfDay(start), models.StartOfDay(end), sections)
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics range: %w", err)
	}
	return days, nil
}

func validSection(section string) bool {
	for _, allowed := range models.AnalyticsSections {
		if section == allowed {
			return true
		}
	}
	return false
}

func (s *analyticsService) RealTime(ctx context.Context, company primitive.ObjectID) (models.DailyStats, error) {
	analytics, err := s.Today(ctx, company)
	if err != nil {
		return models.DailyStats{}, err
	}
	return analytics.DailyStats, nil
}

func (s *analyticsService) UserStats(ctx context.Context, company, user primitive.ObjectID) (models.UserStats, error) {
	analytics, err := s.Today(ctx, company)
	if err != nil {
		return models.UserStats{}, err
	}
	if stats, ok := analytics.UserStats[user.Hex()]; ok && stats != nil {
		return *stats, nil
	}
	return models.DefaultUserStats(), nil
}

func (s *analyticsService) DepartmentStats(ctx context.Context, company, department primitive.ObjectID) (models.DepartmentStats, error) {
	analytics, err := s.Today(ctx, company)
	if err != nil {
		return models.DepartmentStats{}, err
	}
	if stats, ok := analytics.DepartmentStats[department.Hex()]; ok && stats != nil {
		return *stats, nil
	}
	return models.DefaultDepartmentStats(), nil
}

var csvHeader = []string{
	"date", "scope", "name",
	"tasksCreated", "tasksCompleted", "overdueCount", "averageCompletionTime", "overdueRate",
}

// ExportCSV writes one row per scope per day. Departments and users are
// listed by name, falling back to their id.
func (s *analyticsService) ExportCSV(ctx context.Context, company primitive.ObjectID, start, end time.Time, w io.Writer) error {
	days, err := s.Range(ctx, company, start, end, nil)
	if err != nil {
		return err
	}

	departmentNames := map[string]string{}
	departments, err := s.departments.ListByCompany(ctx, company)
	if err != nil {
		return fmt.Errorf("failed to list departments: %w", err)
	}
	for _, d := range departments {
		departmentNames[d.ID.Hex()] = d.Name
	}

	userNames := map[string]string{}
	users, err := s.users.ListByCompany(ctx, company)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		userNames[u.ID.Hex()] = u.Username
	}

	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return err
	}

	for _, day := range days {
		date := day.Date.Format("2006-01-02")
		rows := [][]string{statsRow(date, "company", "all", day.DailyStats.CompletionStats)}

		rows = append(rows,
			statsRow(date, "priority", models.PriorityHigh, day.PriorityStats.High),
			statsRow(date, "priority", models.PriorityMedium, day.PriorityStats.Medium),
			statsRow(date, "priority", models.PriorityLow, day.PriorityStats.Low),
		)
		for _, key := range sortedKeys(day.DepartmentStats) {
			if stats := day.DepartmentStats[key]; stats != nil {
				rows = append(rows, statsRow(date, "department", nameOr(departmentNames, key), stats.CompletionStats))
			}
		}
		for _, key := range sortedKeys(day.UserStats) {
			if stats := day.UserStats[key]; stats != nil {
				rows = append(rows, statsRow(date, "user", nameOr(userNames, key), stats.CompletionStats))
			}
		}

		if err := out.WriteAll(rows); err != nil {
			return err
		}
	}

	out.Flush()
	return out.Error()
}

func statsRow(date, scope, name string, stats models.CompletionStats) []string {
	return []string{
		date, scope, name,
		strconv.Itoa(stats.TasksCreated),
		strconv.Itoa(stats.TasksCompleted),
		strconv.Itoa(stats.OverdueCount),
		strconv.FormatFloat(stats.AverageCompletionTime, 'f', 2, 64),
		strconv.FormatFloat(stats.OverdueRate, 'f', 2, 64),
	}
}

func nameOr(names map[string]string, key string) string {
	if name, ok := names[key]; ok {
		return name
	}
	return key
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
