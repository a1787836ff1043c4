package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CommentService interface {
	PostComment(ctx context.Context, actor models.Actor, taskID primitive.ObjectID, content string) (*models.Comment, error)
	ListComments(ctx context.Context, actor models.Actor, taskID primitive.ObjectID) ([]models.Comment, error)
}

type commentService struct {
	repo  repository.CommentRepository
	tasks repository.TaskRepository
	now   func() time.Time
}

func NewCommentService(repo repository.CommentRepository, tasks repository.TaskRepository) CommentService {
	return &commentService{
		repo:  repo,
		tasks: tasks,
		now:   time.Now,
	}
}

func (s *commentService) PostComment(ctx context.Context, actor models.Actor, taskID primitive.ObjectID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, utils.BadRequest("Comment cannot be empty")
	}
	if err := s.ensureTask(ctx, actor, taskID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Task:      taskID,
		Author:    actor.UserID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) ListComments(ctx context.Context, actor models.Actor, taskID primitive.ObjectID) ([]models.Comment, error) {
	if err := s.ensureTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return s.repo.ListByTask(ctx, taskID)
}

func (s *commentService) ensureTask(ctx context.Context, actor models.Actor, taskID primitive.ObjectID) error {
	_, err := s.tasks.GetByID(ctx, actor.CompanyID, taskID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NotFound("Task not found")
	}
	return err
}
