package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/logger"
	"github.com/emilythestrangee/ystore/backend/internal/models"
)

type Service struct {
	users  UserStore
	tokens *TokenManager
	now    func() time.Time
}

func NewService(users UserStore, tokens *TokenManager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer or seller account and signs it in.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleSeller {
		return nil, apperr.InvalidArgument("Invalid role")
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, apperr.InvalidArgument("full_name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "auth:Register: GenerateFromPassword failed")
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(req.Email),
		FullName:     fullName,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, errors.Wrap(err, "auth:Register: CreateUser failed")
	}

	logger.Infof("user %s registered as %s", user.ID, user.Role)
	return s.respond(user)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("Invalid credentials")
		}
		return nil, errors.Wrap(err, "auth:Login: UserByEmail failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	return s.respond(user)
}

func (s *Service) respond(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{AccessToken: token, TokenType: TokenType, User: *user}, nil
}

// Resolve turns a bearer token into the identity of a user that still exists.
func (s *Service) Resolve(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, err
	}

	user, err := s.users.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Identity{}, apperr.Unauthenticated("User not found")
		}
		return Identity{}, errors.Wrap(err, "auth:Resolve: UserByID failed")
	}
	return IdentityOf(user), nil
}

func (s *Service) User(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, errors.Wrap(err, "auth:User: UserByID failed")
	}
	return user, nil
}

// UpdateProfile renames the account. Comments keep the name they were
// written under.
func (s *Service) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, apperr.InvalidArgument("full_name is required")
	}

	user, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}
	user.FullName = fullName
	user.UpdatedAt = s.now()
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, errors.Wrap(err, "auth:UpdateProfile: SaveUser failed")
	}
	return user, nil
}

// SetRole changes an account's role. Admins are only ever created through it.
func (s *Service) SetRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperr.InvalidArgument("Invalid role")
	}

	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, errors.Wrap(err, "auth:SetRole: UserByEmail failed")
	}
	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, errors.Wrap(err, "auth:SetRole: SaveUser failed")
	}

	logger.Infof("user %s is now %s", user.ID, role)
	return user, nil
}
