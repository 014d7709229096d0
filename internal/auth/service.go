package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

const tokenKeyPrefix = "storeroom:token:"

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	redis    *redis.Client
	tokenTTL time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, client *redis.Client, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{repo: repo, redis: client, tokenTTL: tokenTTL}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

type tokenRecord struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IssueToken creates an opaque bearer token for the user.
func (s *Service) IssueToken(ctx context.Context, user *User) (string, error) {
	if s.redis == nil {
		return "", errors.New("auth: token store not configured")
	}
	token := uuid.NewString()
	payload, err := json.Marshal(tokenRecord{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, tokenKeyPrefix+token, payload, s.tokenTTL).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve maps a bearer token back to the acting user.
func (s *Service) Resolve(ctx context.Context, token string) (*shared.Actor, error) {
	if s.redis == nil || token == "" {
		return nil, shared.ErrInvalidCredentials
	}
	payload, err := s.redis.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	var record tokenRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return &shared.Actor{UserID: record.UserID, Email: record.Email, Role: record.Role}, nil
}

// Revoke deletes a bearer token.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if s.redis == nil || token == "" {
		return nil
	}
	return s.redis.Del(ctx, tokenKeyPrefix+token).Err()
}
