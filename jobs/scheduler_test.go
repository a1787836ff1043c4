package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"retailtasks/models"
	repository "retailtasks/repositories"
	service "retailtasks/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubCompanies struct {
	ids []primitive.ObjectID
	err error
}

func (s stubCompanies) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	return s.ids, s.err
}

type stubAnalytics struct {
	service.AnalyticsService
	failFor primitive.ObjectID
	ensured []primitive.ObjectID
}

func (s *stubAnalytics) EnsureToday(ctx context.Context, company primitive.ObjectID) (*models.Analytics, error) {
	if company == s.failFor {
		return nil, errors.New("write failed")
	}
	s.ensured = append(s.ensured, company)
	return models.NewAnalytics(company, time.Now()), nil
}

type stubTasks struct {
	repository.TaskRepository
	sweptAt time.Time
	flagged int64
}

func (s *stubTasks) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	s.sweptAt = now
	return s.flagged, nil
}

func TestRegisterRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(time.UTC, stubCompanies{}, &stubAnalytics{}, &stubTasks{})

	if err := s.Register("not a cron spec"); err == nil {
		t.Error("Register() should reject an invalid schedule")
	}
	if err := s.Register("0 5 0 * * *"); err != nil {
		t.Errorf("Register() error = %v", err)
	}
}

func TestRolloverContinuesPastFailures(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	analytics := &stubAnalytics{failFor: b}
	s := NewScheduler(time.UTC, stubCompanies{ids: []primitive.ObjectID{a, b, c}}, analytics, &stubTasks{})

	err := s.Rollover(context.Background())
	if err == nil {
		t.Error("Rollover() should report the failed company")
	}
	if len(analytics.ensured) != 2 || analytics.ensured[0] != a || analytics.ensured[1] != c {
		t.Errorf("ensured = %v, want [%s %s]", analytics.ensured, a.Hex(), c.Hex())
	}
}

func TestRolloverListFailure(t *testing.T) {
	s := NewScheduler(time.UTC, stubCompanies{err: errors.New("db down")}, &stubAnalytics{}, &stubTasks{})

	if err := s.Rollover(context.Background()); err == nil {
		t.Error("Rollover() should fail when companies cannot be listed")
	}
}

func TestSweepOverdueUsesClock(t *testing.T) {
	tasks := &stubTasks{flagged: 3}
	s := NewScheduler(time.UTC, stubCompanies{}, &stubAnalytics{}, tasks)
	fixed := time.Date(2025, 5, 20, 0, 15, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.SweepOverdue(context.Background()); err != nil {
		t.Fatalf("SweepOverdue() error = %v", err)
	}
	if !tasks.sweptAt.Equal(fixed) {
		t.Errorf("swept at %v, want %v", tasks.sweptAt, fixed)
	}
}
