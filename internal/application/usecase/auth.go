package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/waste3d/courseforge/internal/domain"
	"github.com/waste3d/courseforge/internal/infrastructure/cache"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
	"github.com/waste3d/courseforge/internal/infrastructure/security"
)

type AuthUseCase struct {
	users    *repository.UserRepository
	sessions *cache.AuthSessionCache
	hasher   *security.PasswordHasher
	signer   *security.SessionSigner
}

func NewAuthUseCase(
	ur *repository.UserRepository,
	sc *cache.AuthSessionCache,
	h *security.PasswordHasher,
	s *security.SessionSigner,
) *AuthUseCase {
	return &AuthUseCase{
		users:    ur,
		sessions: sc,
		hasher:   h,
		signer:   s,
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is empty", domain.ErrBadRequest)
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username: username,
		Password: hash,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login открывает сессию и возвращает подписанное значение cookie.
func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := uc.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	ok, err := uc.hasher.Matches(user.Password, password)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, domain.ErrInvalidCredentials
	}

	sid := uuid.NewString()
	if err := uc.sessions.Create(ctx, sid, user.ID); err != nil {
		return "", nil, err
	}
	token, err := uc.signer.Sign(sid)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate resolves the cookie value to a user, extends the session and
// returns a re-signed cookie value.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*domain.User, string, error) {
	sid, err := uc.signer.Parse(token)
	if err != nil {
		return nil, "", domain.ErrNotAuthenticated
	}

	userID, err := uc.sessions.Resolve(ctx, sid)
	if err != nil {
		return nil, "", err
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrNotAuthenticated
		}
		return nil, "", err
	}

	refreshed, err := uc.signer.Sign(sid)
	if err != nil {
		return nil, "", err
	}
	return user, refreshed, nil
}

// Logout всегда успешен для неизвестной или битой cookie.
func (uc *AuthUseCase) Logout(ctx context.Context, token string) error {
	sid, err := uc.signer.Parse(token)
	if err != nil {
		return nil
	}
	return uc.sessions.Destroy(ctx, sid)
}

func (uc *AuthUseCase) User(ctx context.Context, id uint) (*domain.User, error) {
	return uc.users.GetByID(ctx, id)
}
