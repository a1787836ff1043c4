package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const scheduleIDLength = 8

type ScheduleService interface {
	Create(ctx context.Context, actor models.Actor, input *models.ScheduleInput) (*models.Schedule, error)
	List(ctx context.Context, actor models.Actor) ([]models.Schedule, error)
	Get(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Schedule, error)
	UpdateDays(ctx context.Context, actor models.Actor, id primitive.ObjectID, input *models.ScheduleDaysInput) (*models.Schedule, error)
	Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
}

type scheduleService struct {
	repo repository.ScheduleRepository
	now  func() time.Time
}

func NewScheduleService(repo repository.ScheduleRepository) ScheduleService {
	return &scheduleService{
		repo: repo,
		now:  time.Now,
	}
}

func requireManager(actor models.Actor) error {
	if !actor.IsManager() {
		return utils.Forbidden("Manager or Admin role required")
	}
	return nil
}

func (s *scheduleService) Create(ctx context.Context, actor models.Actor, input *models.ScheduleInput) (*models.Schedule, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.EmployeeName)
	if name == "" {
		return nil, utils.BadRequest("Employee name is required")
	}
	days, weekStart, err := parseScheduleDays(input.Days)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, actor.CompanyID, name, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule: %w", err)
	}
	if exists {
		return nil, utils.Conflict("A schedule for this employee and week already exists")
	}

	uniqueID, err := utils.RandomAlphanumeric(scheduleIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedule id: %w", err)
	}

	now := s.now()
	schedule := &models.Schedule{
		UniqueID:      uniqueID,
		Company:       actor.CompanyID,
		EmployeeName:  name,
		WeekStartDate: weekStart,
		Days:          days,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		if repository.IsDuplicateIndex(err, repository.ScheduleWeekIndex) {
			return nil, utils.Conflict("A schedule for this employee and week already exists")
		}
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return schedule, nil
}

func (s *scheduleService) List(ctx context.Context, actor models.Actor) ([]models.Schedule, error) {
	return s.repo.ListByCompany(ctx, actor.CompanyID)
}

func (s *scheduleService) Get(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Schedule, error) {
	schedule, err := s.repo.GetByID(ctx, actor.CompanyID, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NotFound("Schedule not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return schedule, nil
}

func (s *scheduleService) UpdateDays(ctx context.Context, actor models.Actor, id primitive.ObjectID, input *models.ScheduleDaysInput) (*models.Schedule, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	schedule, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	days, weekStart, err := parseScheduleDays(input.Days)
	if err != nil {
		return nil, err
	}

	if !weekStart.Equal(schedule.WeekStartDate) {
		exists, err := s.repo.Exists(ctx, actor.CompanyID, schedule.EmployeeName, weekStart)
		if err != nil {
			return nil, fmt.Errorf("failed to check schedule: %w", err)
		}
		if exists {
			return nil, utils.Conflict("A schedule for this employee and week already exists")
		}
	}

	schedule.Days = days
	schedule.WeekStartDate = weekStart
	schedule.UpdatedAt = s.now()
	if err := s.repo.UpdateDays(ctx, schedule); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NotFound("Schedule not found")
		}
		if repository.IsDuplicateIndex(err, repository.ScheduleWeekIndex) {
			return nil, utils.Conflict("A schedule for this employee and week already exists")
		}
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}
	return schedule, nil
}

func (s *scheduleService) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, actor.CompanyID, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NotFound("Schedule not found")
	}
	return err
}

// parseScheduleDays converts the day grid and returns the sunday date as the
// start of the week.
func parseScheduleDays(input map[string]models.DayInput) (map[string]models.ScheduleDay, time.Time, error) {
	days := make(map[string]models.ScheduleDay, len(input))
	for key, in := range input {
		day := strings.ToLower(strings.TrimSpace(key))
		if !slices.Contains(models.Weekdays, day) {
			return nil, time.Time{}, utils.BadRequest(fmt.Sprintf("Unknown day %q", key))
		}

		parsed, err := parseScheduleDay(day, in)
		if err != nil {
			return nil, time.Time{}, err
		}
		days[day] = parsed
	}

	sunday, ok := days["sunday"]
	if !ok {
		return nil, time.Time{}, utils.BadRequest("Sunday is required to determine the week")
	}
	weekStart := sunday.Date
	if weekStart.Weekday() != time.Sunday {
		return nil, time.Time{}, utils.BadRequest(fmt.Sprintf("%s is not a Sunday", weekStart.Format(time.DateOnly)))
	}

	// Every day must be its own weekday within the week starting on sunday.
	for name, day := range days {
		want := weekStart.AddDate(0, 0, slices.Index(models.Weekdays, name))
		if !day.Date.Equal(want) {
			return nil, time.Time{}, utils.BadRequest(fmt.Sprintf("Date for %s must be %s", name, want.Format(time.DateOnly)))
		}
	}
	return days, weekStart, nil
}

func parseScheduleDay(name string, in models.DayInput) (models.ScheduleDay, error) {
	date, err := time.Parse(time.DateOnly, in.Date)
	if err != nil {
		return models.ScheduleDay{}, utils.BadRequest(fmt.Sprintf("Invalid date for %s", name))
	}
	day := models.ScheduleDay{Date: date}

	if day.StartTime, err = clockOn(date, in.StartTime); err != nil {
		return models.ScheduleDay{}, utils.BadRequest(fmt.Sprintf("Invalid start time for %s", name))
	}
	if day.EndTime, err = clockOn(date, in.EndTime); err != nil {
		return models.ScheduleDay{}, utils.BadRequest(fmt.Sprintf("Invalid end time for %s", name))
	}
	if day.StartTime != nil && day.EndTime != nil && !day.EndTime.After(*day.StartTime) {
		return models.ScheduleDay{}, utils.BadRequest(fmt.Sprintf("End time must be after start time for %s", name))
	}
	return day, nil
}

// clockOn places an HH:MM time on date. An empty value means no shift.
func clockOn(date time.Time, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	clock, err := time.Parse("15:04", value)
	if err != nil {
		return nil, err
	}
	t := date.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	return &t, nil
}
