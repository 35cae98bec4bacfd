package user

import (
	"context"
	"fmt"
	"time"

	"github.com/support-role-api/internal/application/guard"
	"github.com/support-role-api/internal/domain"
	"github.com/support-role-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldUsername     = "username"
	fieldEmail        = "email"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldEnable       = "enable"
	fieldPasswordHash = "password_hash"
)

// Service is the account CRUD entry point. Every path that can change a role
// or an email address runs through the transition guard, so no caller can
// hand out the support role directly.
type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, *domain.Decision, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, *domain.Decision, error)
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type service struct {
	repo  userStore
	guard guard.Service
}

type ServiceDeps struct {
	UserRepo userStore
	Guard    guard.Service
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo, guard: deps.Guard}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, *domain.Decision, error) {
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, nil, err
	}

	decision, err := s.guard.OnRegister(ctx, u.UserID)
	if err != nil {
		return nil, nil, err
	}
	if decision != nil && decision.FinalRole != u.Role {
		u.Role = decision.FinalRole
	}
	return u, decision, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, *domain.Decision, error) {
	updates := map[string]interface{}{}
	if req.Username != nil {
		updates[fieldUsername] = *req.Username
	}
	if req.Email != nil {
		updates[fieldEmail] = *req.Email
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Enable != nil {
		updates[fieldEnable] = *req.Enable
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, userID, updates); err != nil {
			return nil, nil, err
		}
	}

	var decision *domain.Decision
	if req.Role != nil {
		if !domain.ValidRole(*req.Role) {
			return nil, nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
		}
		d, err := s.guard.SetRole(ctx, userID, *req.Role)
		if err != nil {
			return nil, nil, err
		}
		decision = d
	}
	// Email drift is checked on every edit; a later decision supersedes the
	// role one, mirroring how a changed address outranks a role request.
	if d, err := s.guard.OnProfileUpdate(ctx, userID); err != nil {
		return nil, nil, err
	} else if d != nil {
		decision = d
	}

	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return u, decision, nil
}

func (s *service) Delete(ctx context.Context, userID string) error {
	return s.repo.SoftDelete(ctx, userID)
}
