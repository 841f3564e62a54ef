package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"recipehub/internal/auth"
	apperrors "recipehub/internal/errors"
	"recipehub/internal/model"
	"recipehub/internal/repository"
)

const bcryptCost = 10

// TokenPair is returned on registration and login.
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, *TokenPair, error)
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	// Logout revokes the refresh token and, when actor is set, its access token.
	Logout(ctx context.Context, refreshToken string, actor *auth.Principal) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Register creates a new user with hashed password and issues tokens.
func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, *TokenPair, error) {
	username = strings.TrimSpace(username)

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, nil, apperrors.ErrUserAlreadyExists
	}
	// If error is not "record not found", return it (could be a database error)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, apperrors.ErrUserAlreadyExists
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Username, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{Refresh: refreshToken, Access: accessToken}, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	storedUserID, storedUsername, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedUsername != claims.Username {
		return "", apperrors.ErrInvalidRefreshToken
	}

	// Deleted accounts keep no refresh rights even while the token is registered.
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string, actor *auth.Principal) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return apperrors.ErrInvalidRefreshToken
	}

	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if actor != nil && actor.TokenID != "" && actor.UserID == claims.UserID {
		if err := s.tokenStore.BlacklistAccessToken(ctx, actor.TokenID, time.Until(actor.ExpiresAt)); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}
	return nil
}
