package users

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/auth"
	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/db"
	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/security"
)

type stepUpCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	StepUpKey(userID string) string
}

// Service handles account lookup, login, and the password step-up used before
// sensitive sync payments.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	// StepUp re-verifies the password and marks the user as recently
	// verified for the configured window.
	StepUp(ctx context.Context, userID uuid.UUID, password string) error
	// HasRecentStepUp reports whether a step-up happened within the window.
	HasRecentStepUp(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RegisterInput captures a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     enums.Role
	BranchID *uuid.UUID
}

const stepUpWindow = 5 * time.Minute

type service struct {
	repo    Repository
	cache   stepUpCache
	jwtCfg  config.JWTConfig
	passCfg config.PasswordConfig
	now     func() time.Time
}

// NewService wires a user service.
func NewService(repo Repository, cache stepUpCache, jwtCfg config.JWTConfig, passCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("step-up cache required")
	}
	return &service{repo: repo, cache: cache, jwtCfg: jwtCfg, passCfg: passCfg, now: time.Now}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New(errors.CodeValidation, "email is required")
	}
	if input.Name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}
	role := input.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	if !role.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid role")
	}

	hash, err := security.HashPassword(input.Password, s.passCfg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "hashing password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         role,
		BranchID:     input.BranchID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errors.New(errors.CodeConflict, "email is already registered")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "creating user")
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", errors.New(errors.CodeUnauthorized, "invalid credentials")
		}
		return nil, "", errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	if !user.Active {
		return nil, "", errors.New(errors.CodeUnauthorized, "account is disabled")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, "", errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		BranchID: user.BranchID,
	})
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "minting access token")
	}
	return user, token, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "user not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	return user, nil
}

func (s *service) StepUp(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return errors.New(errors.CodeUnauthorized, "password verification failed")
	}

	key := s.cache.StepUpKey(userID.String())
	if err := s.cache.Set(ctx, key, s.now().UTC().Format(time.RFC3339), stepUpWindow); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "recording step-up")
	}
	return nil
}

func (s *service) HasRecentStepUp(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := s.cache.Get(ctx, s.cache.StepUpKey(userID.String()))
	if err != nil {
		return false, nil
	}
	return true, nil
}
