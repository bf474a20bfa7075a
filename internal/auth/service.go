package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/pkg/apperrors"
)

const bcryptCost = 12

// Service handles registration, login and session resolution.
type Service struct {
	users    *UserRepository
	sessions *SessionRepository
	secret   []byte
	ttl      time.Duration
}

// NewService creates a new auth Service.
func NewService(users *UserRepository, sessions *SessionRepository, secret string, ttl time.Duration) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
	}
}

// Register creates a new account and returns a fresh session token.
func (s *Service) Register(ctx context.Context, username, password, name string) (string, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", apperrors.New(apperrors.CodeUserExists, "User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	return s.issueSession(ctx, user.ID)
}

// Login verifies credentials and returns a fresh session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperrors.New(apperrors.CodeInvalidCredential, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.New(apperrors.CodeInvalidCredential, "Invalid credentials")
	}

	return s.issueSession(ctx, user.ID)
}

// Logout removes the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve maps a session token to a user identity. Expired sessions are
// invalid even if still present in storage; they are removed lazily here.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", apperrors.New(apperrors.CodeInvalidSession, "Invalid session ID")
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return "", apperrors.New(apperrors.CodeInvalidSession, "Invalid session ID")
	}
	return session.UserID, nil
}

// issueSession signs a short-lived token and stores it. The token is opaque
// to clients; resolution always goes through the session store so that
// logout revokes it immediately.
func (s *Service) issueSession(ctx context.Context, userID string) (string, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	err = s.sessions.Create(ctx, Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}
