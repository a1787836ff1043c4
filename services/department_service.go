package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewDepartmentOption is the department value that asks for a new department.
const NewDepartmentOption = "new"

type DepartmentService interface {
	List(ctx context.Context, company primitive.ObjectID) ([]models.Department, error)
	Create(ctx context.Context, company primitive.ObjectID, name string) (*models.Department, error)
	// Resolve maps a task form's department fields to a department of company.
	Resolve(ctx context.Context, company primitive.ObjectID, department, newDepartment string) (*models.Department, error)
}

type departmentService struct {
	repo repository.DepartmentRepository
}

func NewDepartmentService(repo repository.DepartmentRepository) DepartmentService {
	return &departmentService{repo: repo}
}

func (s *departmentService) List(ctx context.Context, company primitive.ObjectID) ([]models.Department, error) {
	return s.repo.ListByCompany(ctx, company)
}

func (s *departmentService) Create(ctx context.Context, company primitive.ObjectID, name string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.BadRequest("Department name is required")
	}

	department := &models.Department{Name: name, Company: company}
	if err := s.repo.Create(ctx, department); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, utils.Conflict("Department already exists")
		}
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return department, nil
}

func (s *departmentService) Resolve(ctx context.Context, company primitive.ObjectID, department, newDepartment string) (*models.Department, error) {
	department = strings.TrimSpace(department)

	switch department {
	case NewDepartmentOption:
		name := strings.TrimSpace(newDepartment)
		if name == "" {
			return nil, utils.BadRequest("New department name is required")
		}
		return s.findOrCreate(ctx, company, name)
	case "":
		return s.findOrCreate(ctx, company, models.DefaultDepartmentName)
	}

	id, err := primitive.ObjectIDFromHex(department)
	if err != nil {
		return nil, utils.Forbidden("Invalid department")
	}
	found, err := s.repo.GetByID(ctx, company, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.Forbidden("Invalid department")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load department: %w", err)
	}
	return found, nil
}

func (s *departmentService) findOrCreate(ctx context.Context, company primitive.ObjectID, name string) (*models.Department, error) {
	found, err := s.repo.FindByName(ctx, company, name)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up department: %w", err)
	}

	department := &models.Department{Name: name, Company: company}
	if err := s.repo.Create(ctx, department); err != nil {
		// Lost a race with a concurrent create.
		if mongo.IsDuplicateKeyError(err) {
			return s.repo.FindByName(ctx, company, name)
		}
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return department, nil
}
