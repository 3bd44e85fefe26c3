package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirjastoapp/kirjasto-server/internal/auth"
	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
	"github.com/kirjastoapp/kirjasto-server/internal/id"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

// errLoginFailed is returned for every login failure mode. Wrong password
// and unknown username produce the identical error so clients cannot
// enumerate usernames. No invalid arguments are attached for the same
// reason.
var errLoginFailed = domainerrors.BadUserInput("incorrect password or username")

// AuthService handles account creation, login, and token verification.
//
// Logins verify against a single server-wide password rather than a
// per-user credential; accounts carry no password field. The shared
// password is hashed once at startup and compared with argon2id on every
// login so the plaintext never sits in memory past construction.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	passwordHash string
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service. The plaintext API
// password is hashed immediately and discarded.
func NewAuthService(
	st *store.Store,
	tokenService *auth.TokenService,
	apiPassword string,
	logger *slog.Logger,
) (*AuthService, error) {
	passwordHash, err := auth.HashPassword(apiPassword)
	if err != nil {
		return nil, fmt.Errorf("hash api password: %w", err)
	}
	return &AuthService{
		store:        st,
		tokenService: tokenService,
		passwordHash: passwordHash,
		logger:       logger,
	}, nil
}

// CreateUserRequest contains new account data.
type CreateUserRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=64"`
	FavoriteGenre string `json:"favoriteGenre" validate:"required"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateUser registers a new account. The username must be unique; a
// taken username fails with a user-input error naming the argument.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err, map[string]any{"username": req.Username})
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Record:        domain.Record{ID: userID},
		Username:      req.Username,
		FavoriteGenre: req.FavoriteGenre,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if domainerrors.Is(err, domainerrors.ErrConflict) {
			return nil, domainerrors.BadUserInput("username must be unique").
				WithInvalidArgs(map[string]any{"username": req.Username})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user created",
			"user_id", userID,
			"username", user.Username,
		)
	}

	return user, nil
}

// Login verifies the credentials and issues an access token. The password
// is checked before the username lookup so both failure modes take a
// comparable code path and return the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		// Login attaches no invalid arguments
		return "", errLoginFailed
	}

	valid, err := auth.VerifyPassword(s.passwordHash, req.Password)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return "", errLoginFailed
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return "", errLoginFailed
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.tokenService.GenerateToken(user)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user logged in", "user_id", user.ID)
	}

	return token, nil
}

// VerifyToken validates an access token and returns the associated user.
// A valid token whose user no longer exists yields (nil, nil): the
// request proceeds anonymously. A malformed or expired token is an
// authentication error, which the middleware surfaces request-level.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokenService.VerifyToken(tokenString)
	if err != nil {
		return nil, domainerrors.Unauthenticated("invalid or expired token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}
