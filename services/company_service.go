package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retailtasks/logging"
	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const maxCodeAttempts = 5

type CompanyService interface {
	CreateCompany(ctx context.Context, input *models.CompanyInput) (*models.Company, error)
	GetCompany(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.CompanyOverview, error)
}

type companyService struct {
	repo      repository.CompanyRepository
	analytics AnalyticsService
	now       func() time.Time
}

func NewCompanyService(repo repository.CompanyRepository, analytics AnalyticsService) CompanyService {
	return &companyService{
		repo:      repo,
		analytics: analytics,
		now:       time.Now,
	}
}

// CreateCompany registers a company under a fresh join code and store
// number. A collision on either is retried with new values.
func (s *companyService) CreateCompany(ctx context.Context, input *models.CompanyInput) (*models.Company, error) {
	company := &models.Company{
		Name: strings.TrimSpace(input.Name),
		Address: models.Address{
			Street:  strings.TrimSpace(input.Street),
			City:    strings.TrimSpace(input.City),
			State:   strings.TrimSpace(input.State),
			ZipCode: strings.TrimSpace(input.ZipCode),
		},
		CreatedAt: s.now(),
	}

	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if company.Code, company.StoreNumber, err = generateCompanyCodes(); err != nil {
			return nil, fmt.Errorf("failed to generate company code: %w", err)
		}

		err = s.repo.Create(ctx, company)
		if err == nil {
			break
		}
		if repository.IsDuplicateIndex(err, repository.CompanyNameIndex) {
			return nil, utils.Conflict("A company with this name already exists")
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to create company: %w", err)
		}
		logging.Logger.Warnf("Event ID: COMPANY_CODE_COLLISION, Description: Attempt %d collided, retrying", attempt+1)
	}
	if err != nil {
		return nil, utils.Conflict("Could not allocate a unique company code, please try again")
	}

	if _, err := s.analytics.EnsureToday(ctx, company.ID); err != nil {
		logging.Logger.Errorf("Event ID: ANALYTICS_INIT_FAILED, Description: Failed to initialise analytics for company %s: %v", company.ID.Hex(), err)
	}

	logging.Logger.Infof("Event ID: COMPANY_CREATED, Description: Company %q registered with id %s", company.Name, company.ID.Hex())
	return company, nil
}

func generateCompanyCodes() (code, storeNumber string, err error) {
	c, err := utils.RandomInt(100000, 999999)
	if err != nil {
		return "", "", err
	}
	n, err := utils.RandomInt(1000, 9999)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%06d", c), fmt.Sprintf("%04d", n), nil
}

// GetCompany returns the caller's own company with today's analytics.
func (s *companyService) GetCompany(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.CompanyOverview, error) {
	if actor.CompanyID != id {
		return nil, utils.Forbidden("You can only view your own company")
	}

	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	analytics, err := s.analytics.Today(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.CompanyOverview{Company: company, Analytics: analytics}, nil
}
