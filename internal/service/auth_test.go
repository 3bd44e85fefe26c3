package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirjastoapp/kirjasto-server/internal/auth"
	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
	"github.com/kirjastoapp/kirjasto-server/internal/service"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

const (
	testKeyHex      = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testAPIPassword = "secret"
)

func setupAuthService(t *testing.T) (*service.AuthService, *store.Store) {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tokens, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	svc, err := service.NewAuthService(s, tokens, testAPIPassword, nil)
	require.NoError(t, err)

	return svc, s
}

func TestAuthService_CreateUser(t *testing.T) {
	svc, _ := setupAuthService(t)

	user, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username:      "reader",
		FavoriteGenre: "scifi",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "reader", user.Username)
	require.Equal(t, "scifi", user.FavoriteGenre)
}

func TestAuthService_CreateUser_DuplicateUsername(t *testing.T) {
	svc, _ := setupAuthService(t)

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username:      "reader",
		FavoriteGenre: "scifi",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username:      "reader",
		FavoriteGenre: "crime",
	})
	require.ErrorIs(t, err, domainerrors.ErrBadUserInput)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "reader", domainErr.InvalidArgs["username"])
}

func TestAuthService_CreateUser_Validation(t *testing.T) {
	svc, _ := setupAuthService(t)

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username:      "reader",
		FavoriteGenre: "",
	})
	require.ErrorIs(t, err, domainerrors.ErrBadUserInput)
}

func TestAuthService_Login_RoundTrip(t *testing.T) {
	svc, _ := setupAuthService(t)

	user, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username:      "reader",
		FavoriteGenre: "scifi",
	})
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), service.LoginRequest{
		Username: "reader",
		Password: testAPIPassword,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The token resolves back to the same user.
	verified, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, verified.ID)
	require.Equal(t, "reader", verified.Username)
}

func TestAuthService_Login_GenericErrorForBothFailureModes(t *testing.T) {
	svc, _ := setupAuthService(t)

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username:      "reader",
		FavoriteGenre: "scifi",
	})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), service.LoginRequest{
		Username: "reader",
		Password: "nope",
	})
	_, unknownUser := svc.Login(context.Background(), service.LoginRequest{
		Username: "nobody",
		Password: testAPIPassword,
	})

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)

	// Identical message in both cases so usernames cannot be enumerated.
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())
	require.ErrorIs(t, wrongPassword, domainerrors.ErrBadUserInput)
	require.ErrorIs(t, unknownUser, domainerrors.ErrBadUserInput)

	// No argument details either.
	var domainErr *domainerrors.Error
	require.ErrorAs(t, wrongPassword, &domainErr)
	require.Empty(t, domainErr.InvalidArgs)
}

func TestAuthService_VerifyToken_InvalidToken(t *testing.T) {
	svc, _ := setupAuthService(t)

	_, err := svc.VerifyToken(context.Background(), "garbage")
	require.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}

func TestAuthService_VerifyToken_DeletedUserIsAnonymous(t *testing.T) {
	svc, _ := setupAuthService(t)

	// A valid token for a user the store has never seen.
	tokens, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)
	ghost := &domain.User{
		Record:        domain.Record{ID: "user-ghost"},
		Username:      "ghost",
		FavoriteGenre: "horror",
	}
	token, err := tokens.GenerateToken(ghost)
	require.NoError(t, err)

	user, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	require.Nil(t, user)
}
