package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"testing"
	"time"

	"retailtasks/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type analyticsFixture struct {
	svc         *analyticsService
	repo        *fakeAnalyticsRepo
	users       *fakeUserRepo
	departments *fakeDepartmentRepo
	company     primitive.ObjectID
	alice       *models.User
	produce     *models.Department
	now         time.Time
}

func newAnalyticsFixture() *analyticsFixture {
	f := &analyticsFixture{
		company: primitive.NewObjectID(),
		now:     time.Date(2025, 5, 20, 9, 30, 0, 0, time.Local),
	}
	f.alice = &models.User{Username: "alice", Company: f.company, Role: models.RoleEmployee}
	f.produce = &models.Department{Name: "Produce", Company: f.company}

	f.repo = newFakeAnalyticsRepo()
	f.users = newFakeUserRepo(f.alice)
	f.departments = newFakeDepartmentRepo(f.produce)
	f.svc = NewAnalyticsService(f.repo, f.users, f.departments).(*analyticsService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *analyticsFixture) task(importance models.Importance) *models.Task {
	assignee := f.alice.ID
	return &models.Task{
		ID:         primitive.NewObjectID(),
		Company:    f.company,
		Department: f.produce.ID,
		Author:     f.alice.ID,
		AssignedTo: &assignee,
		Importance: importance,
		DueDate:    f.now.Add(24 * time.Hour),
		CreatedAt:  f.now,
	}
}

func TestEnsureTodaySeedsDepartmentsAndUsers(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	a, err := f.svc.EnsureToday(ctx, f.company)
	if err != nil {
		t.Fatalf("EnsureToday() error = %v", err)
	}
	if !a.Date.Equal(models.StartOfDay(f.now)) {
		t.Errorf("Date = %v, want start of day", a.Date)
	}
	if _, ok := a.DepartmentStats[f.produce.ID.Hex()]; !ok {
		t.Error("department entry missing")
	}
	if _, ok := a.UserStats[f.alice.ID.Hex()]; !ok {
		t.Error("user entry missing")
	}

	if _, err := f.svc.EnsureToday(ctx, f.company); err != nil {
		t.Fatalf("second EnsureToday() error = %v", err)
	}
	if f.repo.inserts != 1 {
		t.Errorf("inserts = %d, want 1", f.repo.inserts)
	}

	f.now = f.now.Add(24 * time.Hour)
	if _, err := f.svc.EnsureToday(ctx, f.company); err != nil {
		t.Fatalf("next day EnsureToday() error = %v", err)
	}
	if f.repo.inserts != 2 {
		t.Errorf("inserts after rollover = %d, want 2", f.repo.inserts)
	}
}

func TestCreateThenDeleteRestoresCounters(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()
	task := f.task(models.ImportanceLow)

	if err := f.svc.RecordTaskCreated(ctx, task); err != nil {
		t.Fatalf("RecordTaskCreated() error = %v", err)
	}
	if err := f.svc.RecordTaskDeleted(ctx, task); err != nil {
		t.Fatalf("RecordTaskDeleted() error = %v", err)
	}
	// A second delete must not push the counters negative.
	if err := f.svc.RecordTaskDeleted(ctx, task); err != nil {
		t.Fatalf("RecordTaskDeleted() error = %v", err)
	}

	a := f.repo.day(f.company, f.now)
	if a.DailyStats.TasksCreated != 0 || a.PriorityStats.Low.TasksCreated != 0 {
		t.Errorf("created counters = %d/%d, want 0", a.DailyStats.TasksCreated, a.PriorityStats.Low.TasksCreated)
	}
	if got := a.DepartmentStats[f.produce.ID.Hex()].TasksCreated; got != 0 {
		t.Errorf("department TasksCreated = %d, want 0", got)
	}
	if got := a.UserStats[f.alice.ID.Hex()].TasksCreated; got != 0 {
		t.Errorf("user TasksCreated = %d, want 0", got)
	}
	if a.DailyStats.TasksDeleted != 2 {
		t.Errorf("TasksDeleted = %d, want 2", a.DailyStats.TasksDeleted)
	}
}

func TestCompletionAveragesAcrossScopes(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	for _, hours := range []int{10, 20} {
		task := f.task(models.ImportanceMedium)
		completed := task.CreatedAt.Add(time.Duration(hours) * time.Hour)
		task.CompletedAt = &completed
		task.DueDate = task.CreatedAt.Add(15 * time.Hour)
		if err := f.svc.RecordTaskCompleted(ctx, task); err != nil {
			t.Fatalf("RecordTaskCompleted() error = %v", err)
		}
	}

	a := f.repo.day(f.company, f.now)
	scopes := map[string]models.CompletionStats{
		"daily":      a.DailyStats.CompletionStats,
		"department": a.DepartmentStats[f.produce.ID.Hex()].CompletionStats,
		"user":       a.UserStats[f.alice.ID.Hex()].CompletionStats,
		"priority":   a.PriorityStats.Medium,
	}
	for name, s := range scopes {
		if s.TasksCompleted != 2 {
			t.Errorf("%s TasksCompleted = %d, want 2", name, s.TasksCompleted)
		}
		if s.AverageCompletionTime != 15 {
			t.Errorf("%s AverageCompletionTime = %v, want 15", name, s.AverageCompletionTime)
		}
		if s.OverdueCount != 1 || s.OverdueRate != 50 {
			t.Errorf("%s overdue = %d (%v%%), want 1 (50%%)", name, s.OverdueCount, s.OverdueRate)
		}
	}
}

func TestCounterIncrements(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	if err := f.svc.RecordLogin(ctx, f.alice); err != nil {
		t.Fatalf("RecordLogin() error = %v", err)
	}
	if err := f.svc.RecordProfileUpdate(ctx, f.company); err != nil {
		t.Fatalf("RecordProfileUpdate() error = %v", err)
	}
	if err := f.svc.RecordPasswordChange(ctx, f.company); err != nil {
		t.Fatalf("RecordPasswordChange() error = %v", err)
	}

	if len(f.repo.increments) != 3 {
		t.Fatalf("increments = %d, want 3", len(f.repo.increments))
	}

	login := f.repo.increments[0]
	key := "userStats." + f.alice.ID.Hex()
	if login.inc["dailyStats.userLogins"] != 1 || login.inc[key+".loginCount"] != 1 {
		t.Errorf("login inc = %v", login.inc)
	}
	if got, ok := login.set[key+".lastLogin"].(time.Time); !ok || !got.Equal(f.now) {
		t.Errorf("login set = %v", login.set)
	}
	if !login.day.Equal(models.StartOfDay(f.now)) || login.company != f.company {
		t.Errorf("login targeted %s on %v", login.company.Hex(), login.day)
	}

	if f.repo.increments[1].inc["dailyStats.profileUpdates"] != 1 {
		t.Errorf("profile inc = %v", f.repo.increments[1].inc)
	}
	if f.repo.increments[2].inc["dailyStats.passwordChanges"] != 1 {
		t.Errorf("password inc = %v", f.repo.increments[2].inc)
	}
}

func TestReadsDefaultWhenNothingRecorded(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	today, err := f.svc.Today(ctx, f.company)
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if today.DailyStats.TasksCreated != 0 || today.UserStats == nil {
		t.Errorf("Today() = %+v", today)
	}
	if f.repo.inserts != 0 {
		t.Error("Today() should not create a document")
	}

	user, err := f.svc.UserStats(ctx, f.company, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("UserStats() error = %v", err)
	}
	if user != models.DefaultUserStats() {
		t.Errorf("UserStats() = %+v, want defaults", user)
	}

	dept, err := f.svc.DepartmentStats(ctx, f.company, f.produce.ID)
	if err != nil {
		t.Fatalf("DepartmentStats() error = %v", err)
	}
	if dept != models.DefaultDepartmentStats() {
		t.Errorf("DepartmentStats() = %+v, want defaults", dept)
	}
}

func TestRangeValidation(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()
	start := f.now.AddDate(0, 0, -7)

	_, err := f.svc.Range(ctx, f.company, start, f.now, []string{"dailyStats", "revenue"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Range(ctx, f.company, f.now, start, nil)
	assertStatus(t, err, http.StatusBadRequest)

	if _, err := f.svc.EnsureToday(ctx, f.company); err != nil {
		t.Fatalf("EnsureToday() error = %v", err)
	}
	days, err := f.svc.Range(ctx, f.company, start, f.now, []string{"dailyStats"})
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if len(days) != 1 {
		t.Errorf("Range() returned %d days, want 1", len(days))
	}
}

func TestExportCSV(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	if err := f.svc.RecordTaskCreated(ctx, f.task(models.ImportanceHigh)); err != nil {
		t.Fatalf("RecordTaskCreated() error = %v", err)
	}

	var buf bytes.Buffer
	if err := f.svc.ExportCSV(ctx, f.company, f.now.AddDate(0, 0, -1), f.now, &buf); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	// header, company, three priorities, one department, one user
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7: %v", len(rows), rows)
	}
	if rows[0][0] != "date" || rows[0][len(rows[0])-1] != "overdueRate" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "company" || rows[1][3] != "1" {
		t.Errorf("company row = %v", rows[1])
	}
	if rows[2][2] != models.PriorityHigh || rows[2][3] != "1" {
		t.Errorf("high priority row = %v", rows[2])
	}
	if rows[5][1] != "department" || rows[5][2] != "Produce" {
		t.Errorf("department row = %v", rows[5])
	}
	if rows[6][1] != "user" || rows[6][2] != "alice" {
		t.Errorf("user row = %v", rows[6])
	}
}

func TestLifecycleUpdateFailsWhenSaveFails(t *testing.T) {
	f := newAnalyticsFixture()
	f.repo.saveErr = errStore

	if err := f.svc.RecordTaskCreated(context.Background(), f.task(models.ImportanceHigh)); err == nil {
		t.Fatal("RecordTaskCreated() should report the save failure")
	}
}

func TestLoginDuringLifecycleUpdateIsKept(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	task := f.task(models.ImportanceHigh)
	completed := task.CreatedAt.Add(4 * time.Hour)
	task.CompletedAt = &completed

	// The login lands after RecordTaskCompleted has loaded the day and
	// before it writes back.
	f.repo.beforeUpdate = func() {
		if err := f.svc.RecordLogin(ctx, f.alice); err != nil {
			t.Errorf("RecordLogin() error = %v", err)
		}
	}
	if err := f.svc.RecordTaskCompleted(ctx, task); err != nil {
		t.Fatalf("RecordTaskCompleted() error = %v", err)
	}

	a := f.repo.day(f.company, f.now)
	if a.DailyStats.UserLogins != 1 {
		t.Errorf("UserLogins = %d, want 1", a.DailyStats.UserLogins)
	}
	user := a.UserStats[f.alice.ID.Hex()]
	if user.LoginCount != 1 || user.LastLogin == nil {
		t.Errorf("user login = %d (%v), want 1", user.LoginCount, user.LastLogin)
	}
	if user.TasksCompleted != 1 || a.DailyStats.TasksCompleted != 1 {
		t.Errorf("completed = %d/%d, want 1", user.TasksCompleted, a.DailyStats.TasksCompleted)
	}
	if a.PriorityStats.High.AverageCompletionTime != 4 {
		t.Errorf("high AverageCompletionTime = %v, want 4", a.PriorityStats.High.AverageCompletionTime)
	}
}

func TestNewUserEntryDoesNotResetConcurrentLogin(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()
	bob := &models.User{ID: primitive.NewObjectID(), Username: "bob", Company: f.company}

	if _, err := f.svc.EnsureToday(ctx, f.company); err != nil {
		t.Fatalf("EnsureToday() error = %v", err)
	}
	f.repo.beforeUpdate = func() {
		if err := f.svc.RecordLogin(ctx, bob); err != nil {
			t.Errorf("RecordLogin() error = %v", err)
		}
	}
	if err := f.svc.AddUser(ctx, f.company, bob.ID); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	a := f.repo.day(f.company, f.now)
	entry, ok := a.UserStats[bob.ID.Hex()]
	if !ok {
		t.Fatal("user entry missing")
	}
	if entry.LoginCount != 1 {
		t.Errorf("LoginCount = %d, want 1", entry.LoginCount)
	}
}

func TestFirstCounterOfDaySeedsEntries(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	if err := f.svc.RecordLogin(ctx, f.alice); err != nil {
		t.Fatalf("RecordLogin() error = %v", err)
	}

	a := f.repo.day(f.company, f.now)
	if a == nil {
		t.Fatal("day document missing")
	}
	if f.repo.inserts != 1 {
		t.Errorf("inserts = %d, want 1", f.repo.inserts)
	}
	if _, ok := a.DepartmentStats[f.produce.ID.Hex()]; !ok {
		t.Error("department entry missing")
	}
	if user, ok := a.UserStats[f.alice.ID.Hex()]; !ok || user.LoginCount != 1 {
		t.Errorf("user entry = %+v, want one login", user)
	}
	if a.DailyStats.UserLogins != 1 {
		t.Errorf("UserLogins = %d, want 1", a.DailyStats.UserLogins)
	}
}
