package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retailtasks/logging"
	"retailtasks/models"
	repository "retailtasks/repositories"
	"retailtasks/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Register(ctx context.Context, input *models.RegisterInput) (*models.User, error)
	Login(ctx context.Context, input *models.LoginInput) (*models.LoginResult, error)
	GetProfile(ctx context.Context, actor models.Actor) (*models.User, error)
	UpdateProfile(ctx context.Context, actor models.Actor, input *models.ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, actor models.Actor, input *models.ChangePasswordInput) error
	// Admin
	ListCompanyUsers(ctx context.Context, actor models.Actor) ([]models.User, error)
	GetUser(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.User, error)
	UpdateUserRole(ctx context.Context, actor models.Actor, id primitive.ObjectID, role models.Role) (*models.User, error)
}

// TokenConfig controls the tokens issued on login.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

type userService struct {
	repo      repository.UserRepository
	companies repository.CompanyRepository
	analytics AnalyticsService
	tokens    TokenConfig
	hashCost  int
	now       func() time.Time
}

func NewUserService(repo repository.UserRepository, companies repository.CompanyRepository, analytics AnalyticsService, tokens TokenConfig) UserService {
	return &userService{
		repo:      repo,
		companies: companies,
		analytics: analytics,
		tokens:    tokens,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
}

func (s *userService) Register(ctx context.Context, input *models.RegisterInput) (*models.User, error) {
	if input.Password != input.ConfirmPassword {
		return nil, utils.BadRequest("Passwords do not match")
	}

	email := strings.ToLower(strings.TrimSpace(input.WorkEmail))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, utils.Conflict("Email already in use")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	company, err := s.companies.GetByCode(ctx, input.CompanyCode)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.BadRequest("Invalid company code")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up company: %w", err)
	}

	// The first user of a company administers it; everyone after starts as
	// an employee and is promoted by an admin.
	role := models.RoleEmployee
	taken, err := s.repo.HasUsers(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check company users: %w", err)
	}
	if !taken {
		role = models.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Username:     strings.TrimSpace(input.Username),
		WorkEmail:    email,
		PasswordHash: string(hash),
		Company:      company.ID,
		Role:         role,
		Departments:  []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		switch {
		case repository.IsDuplicateIndex(err, repository.UsernameIndex):
			return nil, utils.Conflict("Username already taken")
		case mongo.IsDuplicateKeyError(err):
			return nil, utils.Conflict("Email already in use")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.analytics.AddUser(ctx, company.ID, user.ID); err != nil {
		logAnalyticsFailure("user_registered", user.ID, err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s joined company %s as %s", user.Username, company.ID.Hex(), user.Role)
	return user, nil
}

func (s *userService) Login(ctx context.Context, input *models.LoginInput) (*models.LoginResult, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.Unauthorized("Invalid username or password")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Bad password for %s", user.Username)
		return nil, utils.Unauthorized("Invalid username or password")
	}

	token, err := utils.GenerateToken(s.tokens.Secret, user, s.tokens.TTL, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.analytics.RecordLogin(ctx, user); err != nil {
		logAnalyticsFailure("login", user.ID, err)
	}

	return &models.LoginResult{Token: token, User: user}, nil
}

func (s *userService) GetProfile(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.repo.GetByID(ctx, actor.UserID)
}

func (s *userService) UpdateProfile(ctx context.Context, actor models.Actor, input *models.ProfileInput) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)

	if email := strings.ToLower(strings.TrimSpace(input.WorkEmail)); email != "" && email != user.WorkEmail {
		existing, err := s.repo.GetByEmail(ctx, email)
		if err == nil && existing.ID != user.ID {
			return nil, utils.Conflict("Email already in use")
		}
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.WorkEmail = email
	}
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, utils.Conflict("Email already in use")
		}
		return nil, err
	}

	if err := s.analytics.RecordProfileUpdate(ctx, user.Company); err != nil {
		logAnalyticsFailure("profile_update", user.ID, err)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, actor models.Actor, input *models.ChangePasswordInput) error {
	if input.NewPassword != input.ConfirmPassword {
		return utils.BadRequest("New passwords do not match")
	}

	user, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return utils.BadRequest("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.analytics.RecordPasswordChange(ctx, user.Company); err != nil {
		logAnalyticsFailure("password_change", user.ID, err)
	}
	return nil
}

func (s *userService) ListCompanyUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	return s.repo.ListByCompany(ctx, actor.CompanyID)
}

// GetUser hides users of other companies behind a 404.
func (s *userService) GetUser(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Company != actor.CompanyID {
		return nil, utils.NotFound("User not found")
	}
	return user, nil
}

func (s *userService) UpdateUserRole(ctx context.Context, actor models.Actor, id primitive.ObjectID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, utils.BadRequest("Invalid role")
	}
	if id == actor.UserID {
		return nil, utils.BadRequest("You cannot change your own role")
	}

	user, err := s.GetUser(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: USER_ROLE_CHANGED, Description: %s set role of %s to %s", actor.Username, user.Username, role)
	return user, nil
}
