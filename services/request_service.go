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

const notApplicable = "N/A"

type RequestService interface {
	Create(ctx context.Context, actor models.Actor, input *models.ChangeRequestInput) (*models.ChangeRequest, error)
	List(ctx context.Context, actor models.Actor) ([]models.ChangeRequest, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, status models.RequestStatus) (*models.ChangeRequest, error)
}

type requestService struct {
	repo repository.ChangeRequestRepository
	now  func() time.Time
}

func NewRequestService(repo repository.ChangeRequestRepository) RequestService {
	return &requestService{
		repo: repo,
		now:  time.Now,
	}
}

func orNotApplicable(value string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return notApplicable
}

func (s *requestService) Create(ctx context.Context, actor models.Actor, input *models.ChangeRequestInput) (*models.ChangeRequest, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	request := &models.ChangeRequest{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Requester:    actor.UserID,
		AffectedUser: orNotApplicable(input.AffectedUser),
		Department:   orNotApplicable(input.Department),
		Company:      actor.CompanyID,
		Status:       models.RequestOpen,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return request, nil
}

func (s *requestService) List(ctx context.Context, actor models.Actor) ([]models.ChangeRequest, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.repo.ListByCompany(ctx, actor.CompanyID)
}

func (s *requestService) UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, status models.RequestStatus) (*models.ChangeRequest, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, actor.CompanyID, id, status); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NotFound("Request not found")
		}
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	request, err := s.repo.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return request, nil
}
