package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rcastell/homestock/internal/core/domain"
	"github.com/rcastell/homestock/internal/port"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingFields      = errors.New("missing required fields")
)

const bcryptCost = 10

type AuthService struct {
	credentials port.CredentialRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewAuthService(credentials port.CredentialRepository, jwtSecret []byte) *AuthService {
	return &AuthService{
		credentials: credentials,
		jwtSecret:   jwtSecret,
		tokenTTL:    time.Hour,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.credentials.CreateCredential(ctx, domain.Credential{
		Email:        email,
		PasswordHash: string(hash),
	}); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Login verifies the password and issues an HS256 token with the owner's
// email as subject, valid for one hour.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	cred, err := s.credentials.FindCredential(ctx, email)
	if err != nil {
		return "", fmt.Errorf("find credential: %w", err)
	}
	if cred == nil {
		return "", ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": cred.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if email == "" || oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}

	cred, err := s.credentials.FindCredential(ctx, email)
	if err != nil {
		return fmt.Errorf("find credential: %w", err)
	}
	if cred == nil {
		return ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.credentials.UpdatePassword(ctx, email, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
