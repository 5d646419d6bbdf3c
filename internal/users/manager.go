// Package users implements worker account registration and lookup. Passwords
// are hashed at this boundary; the stored entity never sees the plaintext.
package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/env"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

type Manager struct {
	store  store.UserRepository
	logger logging.Logger
}

func NewManager(s store.UserRepository, logger logging.Logger) *Manager {
	return &Manager{store: s, logger: logger}
}

// RegisterRequest is the input for creating a worker account.
type RegisterRequest struct {
	Handle        string `json:"handle" validate:"required,min=3,max=64"`
	Password      string `json:"password" validate:"required,min=8"`
	PayoutAddress string `json:"payout_address,omitempty"`
}

// Register creates a new worker account with a unique handle.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (types.UserData, error) {
	if len(req.Handle) < 3 {
		return types.UserData{}, apperrors.Validation("handle must be at least 3 characters")
	}
	if len(req.Password) < 8 {
		return types.UserData{}, apperrors.Validation("password must be at least 8 characters")
	}
	if req.PayoutAddress != "" && !env.IsValidPayoutAddress(req.PayoutAddress) {
		return types.UserData{}, apperrors.Validation("payout address %q is not well-formed", req.PayoutAddress)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.UserData{}, apperrors.Internal("failed to hash password", err)
	}

	user := types.UserData{
		UserID:        uuid.New().String(),
		Handle:        req.Handle,
		PasswordHash:  string(hash),
		PayoutAddress: req.PayoutAddress,
		CreatedAt:     time.Now().UTC(),
	}
	if err := m.store.CreateUser(ctx, user); err != nil {
		return types.UserData{}, err
	}

	m.logger.Infof("Registered user %s (handle=%s)", user.UserID, user.Handle)
	return user, nil
}

// Authenticate verifies a handle/password pair. Lookup and hash-compare
// failures both report the same error, so handles cannot be enumerated.
func (m *Manager) Authenticate(ctx context.Context, handle, password string) (types.UserData, error) {
	user, err := m.store.GetUserByHandle(ctx, handle)
	if err != nil {
		return types.UserData{}, apperrors.Validation("invalid handle or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.UserData{}, apperrors.Validation("invalid handle or password")
	}
	return user, nil
}

func (m *Manager) Get(ctx context.Context, userID string) (types.UserData, error) {
	return m.store.GetUser(ctx, userID)
}

// Leaderboard returns users ranked by total earnings, capped at limit.
func (m *Manager) Leaderboard(ctx context.Context, limit int) ([]types.UserData, error) {
	users, err := m.store.ListUsersByEarnings(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
