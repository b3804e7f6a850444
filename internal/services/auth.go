package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"couple-diary-backend/internal/models"
	"couple-diary-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpDays        = 365
	minPasswordLength = 8
	denylistPrefix    = "denylist:"
)

// AuthService handles registration, login and session tokens
type AuthService struct {
	profiles  ProfileStore
	cache     Cache
	jwtSecret string
}

// NewAuthService creates a new auth service
func NewAuthService(profiles ProfileStore, cache Cache, jwtSecret string) *AuthService {
	return &AuthService{
		profiles:  profiles,
		cache:     cache,
		jwtSecret: jwtSecret,
	}
}

// Register creates an account and its profile in one step and
// returns the profile with a signed session token
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.Profile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, "", Validationf("a valid email is required")
	}
	if name == "" {
		return nil, "", Validationf("name is required")
	}
	if len(password) < minPasswordLength {
		return nil, "", Validationf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	profile := &models.Profile{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.profiles.Create(ctx, profile, string(hash)); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create profile: %w", err)
	}

	token, err := s.GenerateJWT(profile.ID)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// Login verifies credentials and returns the profile with a
// signed session token. The error is the same whether the email
// is unknown or the password is wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Profile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	id, hash, err := s.profiles.GetCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load profile: %w", err)
	}

	token, err := s.GenerateJWT(id)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// Logout revokes a token by denylisting its jti until the token
// would have expired anyway
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parseClaims(tokenString)
	if err != nil {
		return err
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return fmt.Errorf("token has no jti")
	}

	ttl := time.Duration(0)
	if exp, ok := claims["exp"].(float64); ok {
		ttl = time.Until(time.Unix(int64(exp), 0))
	}
	if ttl <= 0 {
		return nil // already expired
	}

	if err := s.cache.Set(ctx, denylistPrefix+jti, "1", ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// GenerateJWT generates a signed session token for a user
func (s *AuthService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.New().String(),
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a session token, rejects revoked tokens,
// and returns the user ID
func (s *AuthService) ValidateJWT(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.parseClaims(tokenString)
	if err != nil {
		return "", err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	if jti, ok := claims["jti"].(string); ok && jti != "" {
		_, revoked, err := s.cache.Get(ctx, denylistPrefix+jti)
		if err != nil {
			return "", fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return "", ErrTokenRevoked
		}
	}

	return userID, nil
}

func (s *AuthService) parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
