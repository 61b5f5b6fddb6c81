// Package services contains the business logic of the file storage service:
// account management, session-based authorization, and the file catalog
// operations exposed over the REST API.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
	"github.com/dmitrijs2005/filevault/internal/server/sessions"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Enqueuer is the producer side of the job queue. Implemented by
// *queue.Client; a narrow interface keeps the services testable.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload any) error
}

// UserService handles registration, login/logout, and profile lookups.
type UserService struct {
	users      users.Repository
	sessions   sessions.Store
	jobs       Enqueuer
	logger     logging.Logger
	sessionTTL time.Duration
}

func NewUserService(users users.Repository, sessions sessions.Store, jobs Enqueuer, logger logging.Logger, sessionTTL time.Duration) *UserService {
	return &UserService{
		users:      users,
		sessions:   sessions,
		jobs:       jobs,
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

// Register creates a new account. A taken email yields
// common.ErrAlreadyExists, distinct from field validation errors.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, common.NewValidationError("Missing email")
	}
	if password == "" {
		return nil, common.NewValidationError("Missing password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("password hash error: %w", err)
	}

	user, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}

	// welcoming the user is nice to have, never a reason to fail registration
	job := models.WelcomeJob{UserID: user.ID.String()}
	if err := s.jobs.Enqueue(ctx, queue.Welcome, job); err != nil {
		s.logger.Warn(ctx, "welcome job enqueue failed", "userId", job.UserID, "error", err.Error())
	}

	return user, nil
}

// Login verifies the credentials and opens a fresh session. The returned
// token is the only handle to the session; its TTL is absolute.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", common.ErrUnauthorized
	}

	token, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Put(ctx, token, user.ID.String(), s.sessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Logout closes the session. Idempotent.
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.Del(ctx, token)
}

// Me returns the account behind an authorized session. A session whose user
// has since disappeared resolves to common.ErrUnauthorized, not a crash.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
