package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"retailtasks/logging"
	"retailtasks/metrics"
	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TaskService interface {
	CreateTask(ctx context.Context, actor models.Actor, input *models.TaskInput) (*models.Task, error)
	ListTasks(ctx context.Context, actor models.Actor, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Task, error)
	UpdateTask(ctx context.Context, actor models.Actor, id primitive.ObjectID, input *models.TaskInput) (*models.Task, error)
	ToggleComplete(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Task, error)
	DeleteTask(ctx context.Context, actor models.Actor, id primitive.ObjectID) error
	// Image methods
	AddImages(ctx context.Context, actor models.Actor, id primitive.ObjectID, uploads []ImageUpload) (*models.Task, error)
	RemoveImage(ctx context.Context, actor models.Actor, id, fileID primitive.ObjectID) (*models.Task, error)
	History(ctx context.Context, actor models.Actor, id primitive.ObjectID) ([]models.History, error)
}

const invalidAssignee = "Invalid assignee: User does not belong to your company."

type taskService struct {
	repo          repository.TaskRepository
	history       repository.HistoryRepository
	comments      repository.CommentRepository
	users         repository.UserRepository
	departments   DepartmentService
	analytics     AnalyticsService
	notifications NotificationService
	images        ImageService
	now           func() time.Time
}

func NewTaskService(
	repo repository.TaskRepository,
	history repository.HistoryRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	departments DepartmentService,
	analytics AnalyticsService,
	notifications NotificationService,
	images ImageService,
) TaskService {
	return &taskService{
		repo:          repo,
		history:       history,
		comments:      comments,
		users:         users,
		departments:   departments,
		analytics:     analytics,
		notifications: notifications,
		images:        images,
		now:           time.Now,
	}
}

func taskLink(id primitive.ObjectID) string {
	return "/tasks/" + id.Hex()
}

// trimTaskText trims the free-text fields of input in place and rejects
// any that end up empty.
func trimTaskText(input *models.TaskInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	if input.Title == "" {
		return utils.BadRequest("Title is required")
	}
	if input.Description == "" {
		return utils.BadRequest("Description is required")
	}
	if input.Location == "" {
		return utils.BadRequest("Location is required")
	}
	return nil
}

func (s *taskService) CreateTask(ctx context.Context, actor models.Actor, input *models.TaskInput) (*models.Task, error) {
	if err := trimTaskText(input); err != nil {
		return nil, err
	}

	dueDate, err := models.ParseDueDate(input.DueDate)
	if err != nil {
		return nil, utils.BadRequest("Invalid due date")
	}

	department, err := s.departments.Resolve(ctx, actor.CompanyID, input.Department, input.NewDepartment)
	if err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(ctx, actor, input.AssignedTo)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     dueDate,
		Importance:  models.Importance(input.Importance),
		Location:    input.Location,
		Department:  department.ID,
		AssignedTo:  assignee,
		Author:      actor.UserID,
		Company:     actor.CompanyID,
		Images:      []models.Image{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.RefreshOverdue(now)

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if assignee != nil {
		s.notifyTask(ctx, *assignee, task, fmt.Sprintf("You have been assigned a new task: %s", task.Title))
	}

	if err := s.analytics.RecordTaskCreated(ctx, task); err != nil {
		logAnalyticsFailure("task_created", task.ID, err)
	}

	s.recordHistory(ctx, task.ID, actor, models.ActionCreate, []models.FieldChange{{
		Field:    "Task Created",
		NewValue: fmt.Sprintf("Initial version by %s", actor.Username),
	}})

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", task.ID.Hex(), actor.Username)
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, actor models.Actor, filter models.TaskFilter) ([]models.Task, error) {
	tasks, err := s.repo.List(ctx, actor.CompanyID, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range tasks {
		tasks[i].RefreshOverdue(now)
	}
	return tasks, nil
}

func (s *taskService) GetTask(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	task.RefreshOverdue(s.now())

	if err := s.analytics.RecordTaskViewed(ctx, actor.CompanyID); err != nil {
		logAnalyticsFailure("task_viewed", task.ID, err)
	}
	return task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, actor models.Actor, id primitive.ObjectID, input *models.TaskInput) (*models.Task, error) {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(actor, task) {
		return nil, utils.Forbidden("You do not have permission to edit this task")
	}
	if err := trimTaskText(input); err != nil {
		return nil, err
	}

	dueDate, err := models.ParseDueDate(input.DueDate)
	if err != nil {
		return nil, utils.BadRequest("Invalid due date")
	}

	department, err := s.departments.Resolve(ctx, actor.CompanyID, input.Department, input.NewDepartment)
	if err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(ctx, actor, input.AssignedTo)
	if err != nil {
		return nil, err
	}

	previous := *task
	task.Title = input.Title
	task.Description = input.Description
	task.DueDate = dueDate
	task.Importance = models.Importance(input.Importance)
	task.Location = input.Location
	task.Department = department.ID
	task.AssignedTo = assignee

	now := s.now()
	task.UpdatedAt = now
	task.RefreshOverdue(now)

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := s.analytics.RecordTaskModified(ctx, task, &previous); err != nil {
		logAnalyticsFailure("task_modified", task.ID, err)
	}

	changes := diffTask(&previous, task)
	if len(changes) > 0 {
		s.recordHistory(ctx, task.ID, actor, models.ActionUpdate, changes)
	}

	reassigned := assignee != nil && !previous.IsAssignee(*assignee)
	if reassigned || (previous.AssignedTo != nil && assignee == nil) {
		s.recordHistory(ctx, task.ID, actor, models.ActionAssign, []models.FieldChange{{
			Field:    "assignedTo",
			OldValue: hexOrEmpty(previous.AssignedTo),
			NewValue: hexOrEmpty(assignee),
		}})
	}

	if assignee != nil && len(changes) > 0 {
		s.notifyTask(ctx, *assignee, task, fmt.Sprintf("Task %q has been updated (%s).", task.Title, changedFields(changes)))
	}
	if reassigned {
		s.notifyTask(ctx, *assignee, task, fmt.Sprintf("Task %q has been assigned to you.", task.Title))
	}

	return task, nil
}

// ToggleComplete flips the completion state. Completing records analytics;
// reopening clears completedAt and leaves analytics alone.
func (s *taskService) ToggleComplete(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !task.IsAssignee(actor.UserID) && !actor.IsManager() {
		return nil, utils.Forbidden("You do not have permission to complete this task.")
	}

	now := s.now()
	wasCompleted := task.Completed

	task.RefreshOverdue(now)
	if wasCompleted {
		task.Completed = false
		task.CompletedAt = nil
		task.RefreshOverdue(now)
	} else {
		task.Completed = true
		task.CompletedAt = &now
	}
	task.UpdatedAt = now

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if task.Completed {
		if err := s.analytics.RecordTaskCompleted(ctx, task); err != nil {
			logAnalyticsFailure("task_completed", task.ID, err)
		}
	}

	s.recordHistory(ctx, task.ID, actor, models.ActionComplete, []models.FieldChange{{
		Field:    "Status",
		OldValue: completionLabel(wasCompleted),
		NewValue: completionLabel(task.Completed),
	}})

	if task.AssignedTo != nil {
		verb := "completed"
		if !task.Completed {
			verb = "reopened"
		}
		s.notifyTask(ctx, task.Author, task, fmt.Sprintf("Task %q has been marked as %s.", task.Title, verb))
	}

	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !canEdit(actor, task) {
		return utils.Forbidden("You do not have permission to delete this task")
	}

	if err := s.repo.Delete(ctx, actor.CompanyID, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if err := s.analytics.RecordTaskDeleted(ctx, task); err != nil {
		logAnalyticsFailure("task_deleted", task.ID, err)
	}

	for _, image := range task.Images {
		if err := s.images.Delete(ctx, image.FileID); err != nil && !utils.IsStatus(err, http.StatusNotFound) {
			logging.Logger.Errorf("Event ID: IMAGE_DELETE_FAILED, Description: Failed to delete image %s of task %s: %v", image.FileID.Hex(), task.ID.Hex(), err)
		}
	}

	if err := s.history.DeleteByTask(ctx, task.ID); err != nil {
		logging.Logger.Errorf("Event ID: HISTORY_DELETE_FAILED, Description: Failed to delete history of task %s: %v", task.ID.Hex(), err)
	}
	if err := s.comments.DeleteByTask(ctx, task.ID); err != nil {
		logging.Logger.Errorf("Event ID: COMMENT_DELETE_FAILED, Description: Failed to delete comments of task %s: %v", task.ID.Hex(), err)
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", task.ID.Hex(), actor.Username)
	return nil
}

// AddImages stores uploads and attaches them to the task. Stored files are
// removed again if any later step fails.
func (s *taskService) AddImages(ctx context.Context, actor models.Actor, id primitive.ObjectID, uploads []ImageUpload) (*models.Task, error) {
	if len(uploads) == 0 {
		return nil, utils.BadRequest("No images provided")
	}

	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(actor, task) {
		return nil, utils.Forbidden("You do not have permission to edit this task")
	}

	stored := make([]models.Image, 0, len(uploads))
	for _, upload := range uploads {
		image, err := s.images.Upload(ctx, actor, upload)
		if err != nil {
			s.discardImages(stored)
			return nil, err
		}
		stored = append(stored, image)
	}

	if err := s.repo.AddImages(ctx, task.ID, stored); err != nil {
		s.discardImages(stored)
		return nil, fmt.Errorf("failed to attach images: %w", err)
	}

	changes := make([]models.FieldChange, 0, len(stored))
	for i := range stored {
		changes = append(changes, models.FieldChange{Field: "Images", NewValue: "Added an image", File: &stored[i]})
	}
	s.recordHistory(ctx, task.ID, actor, models.ActionImage, changes)

	task.Images = append(task.Images, stored...)
	return task, nil
}

func (s *taskService) discardImages(images []models.Image) {
	for _, image := range images {
		if err := s.images.Delete(context.Background(), image.FileID); err != nil {
			logging.Logger.Errorf("Event ID: IMAGE_CLEANUP_FAILED, Description: Failed to clean up image %s: %v", image.FileID.Hex(), err)
		}
	}
}

// RemoveImage detaches the image and deletes the stored file. If the file
// cannot be deleted the image is attached again.
func (s *taskService) RemoveImage(ctx context.Context, actor models.Actor, id, fileID primitive.ObjectID) (*models.Task, error) {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(actor, task) {
		return nil, utils.Forbidden("You do not have permission to edit this task")
	}

	index := -1
	for i, image := range task.Images {
		if image.FileID == fileID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, utils.NotFound("Image not found")
	}
	image := task.Images[index]

	if err := s.repo.RemoveImage(ctx, task.ID, fileID); err != nil {
		return nil, fmt.Errorf("failed to detach image: %w", err)
	}

	if err := s.images.Delete(ctx, fileID); err != nil && !utils.IsStatus(err, http.StatusNotFound) {
		if rollbackErr := s.repo.AddImages(ctx, task.ID, []models.Image{image}); rollbackErr != nil {
			logging.Logger.Errorf("Event ID: IMAGE_ROLLBACK_FAILED, Description: Failed to re-attach image %s: %v", fileID.Hex(), rollbackErr)
		}
		return nil, err
	}

	s.recordHistory(ctx, task.ID, actor, models.ActionUpdate, []models.FieldChange{{
		Field:    "Images",
		NewValue: "Removed an image",
		File:     &image,
	}})

	task.Images = append(task.Images[:index], task.Images[index+1:]...)
	return task, nil
}

func (s *taskService) History(ctx context.Context, actor models.Actor, id primitive.ObjectID) ([]models.History, error) {
	if !actor.IsManager() {
		return nil, utils.Forbidden("Access denied: Only managers can view task history.")
	}

	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.history.ListByTask(ctx, task.ID)
}

// load fetches a task of the actor's company. Tasks of other companies look
// like missing ones.
func (s *taskService) load(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, actor.CompanyID, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NotFound("Task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task.Images == nil {
		task.Images = []models.Image{}
	}
	return task, nil
}

// resolveAssignee returns nil for an empty value. Anyone outside the actor's
// company is rejected.
func (s *taskService) resolveAssignee(ctx context.Context, actor models.Actor, raw string) (*primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, utils.Forbidden(invalidAssignee)
	}

	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.Forbidden(invalidAssignee)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load assignee: %w", err)
	}
	if user.Company != actor.CompanyID {
		return nil, utils.Forbidden(invalidAssignee)
	}
	return &user.ID, nil
}

func (s *taskService) recordHistory(ctx context.Context, task primitive.ObjectID, actor models.Actor, action models.ActionType, changes []models.FieldChange) {
	entry := &models.History{
		Task:       task,
		ChangedBy:  actor.UserID,
		ActionType: action,
		Changes:    changes,
		Timestamp:  s.now(),
	}
	if err := s.history.Create(ctx, entry); err != nil {
		logging.Logger.WithField("task", task.Hex()).
			Errorf("Event ID: HISTORY_WRITE_FAILED, Description: Failed to record %s history: %v", action, err)
	}
}

func (s *taskService) notifyTask(ctx context.Context, user primitive.ObjectID, task *models.Task, message string) {
	related := task.ID
	s.notifications.Notify(ctx, &models.Notification{
		User:      user,
		Message:   message,
		Type:      models.NotificationTask,
		RelatedID: &related,
		Link:      taskLink(task.ID),
	})
}

// canEdit reports whether actor may change or delete task.
func canEdit(actor models.Actor, task *models.Task) bool {
	return actor.IsAdmin() || task.Author == actor.UserID
}

func diffTask(old, updated *models.Task) []models.FieldChange {
	var changes []models.FieldChange
	add := func(field, before, after string) {
		if before != after {
			changes = append(changes, models.FieldChange{Field: field, OldValue: before, NewValue: after})
		}
	}

	add("title", old.Title, updated.Title)
	add("description", old.Description, updated.Description)
	add("dueDate", old.DueDate.UTC().Format(time.RFC3339), updated.DueDate.UTC().Format(time.RFC3339))
	add("importance", string(old.Importance), string(updated.Importance))
	add("location", old.Location, updated.Location)
	add("department", old.Department.Hex(), updated.Department.Hex())
	return changes
}

func changedFields(changes []models.FieldChange) string {
	fields := make([]string, len(changes))
	for i, c := range changes {
		fields[i] = c.Field
	}
	return strings.Join(fields, ", ")
}

func completionLabel(completed bool) string {
	if completed {
		return "Completed"
	}
	return "Incomplete"
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

// SweepOverdue flags open tasks whose due date has passed.
func SweepOverdue(ctx context.Context, repo repository.TaskRepository, now time.Time) (int64, error) {
	flagged, err := repo.MarkOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to flag overdue tasks: %w", err)
	}
	metrics.OverdueTasksFlagged.Add(float64(flagged))
	return flagged, nil
}
