package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chattyapp/chatty/internal/model"
	"github.com/chattyapp/chatty/internal/repository"
	"github.com/chattyapp/chatty/middleware/jwt"
)

// IAuthService issues credentials and resolves them back into identities.
type IAuthService interface {
	Signup(ctx context.Context, email, username, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	ResolveIdentity(ctx context.Context, token string) (*Identity, error)
}

type AuthService struct {
	userRepo repository.IUserRepository
	tokens   *jwt.TokenManager
}

func NewAuthService(userRepo repository.IUserRepository, tokens *jwt.TokenManager) IAuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Signup creates a user and returns it together with a signed token.
func (s *AuthService) Signup(ctx context.Context, email, username, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if username == "" {
		username = email
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("%w: email already exists", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", storeError("lookup email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:                uuid.New().String(),
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		CredentialVersion: 1,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", storeError("create user", err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Email, user.CredentialVersion)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

// Login verifies the password and issues a token carrying the user's
// current credential version.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredential
		}
		return nil, "", storeError("lookup email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredential
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Email, user.CredentialVersion)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

// ResolveIdentity turns a bearer token into an Identity. An empty token
// resolves to anonymous (nil identity, nil error) so login and signup stay
// reachable. A token whose embedded credential version is stale against
// the stored record fails with ErrInvalidCredential.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, storeError("lookup user", err)
	}
	if claims.CredentialVersion != user.CredentialVersion {
		return nil, ErrInvalidCredential
	}

	return &Identity{
		ID:                user.ID,
		Email:             user.Email,
		Username:          user.Username,
		CredentialVersion: user.CredentialVersion,
	}, nil
}
