package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tillpoint/internal/domain"
	"tillpoint/internal/store/memory"
)

func newTestAuth(t *testing.T) *AuthManager {
	t.Helper()
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-secret")
	return NewAuthManager("test-secret-0123456789-0123456789", time.Hour, memory.New())
}

func TestLoginAndParseToken(t *testing.T) {
	auth := newTestAuth(t)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin-secret"})
	require.NoError(t, err)
	require.Equal(t, "admin", resp.Role)
	require.NotEmpty(t, resp.AccessToken)

	actor, err := auth.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin", actor.Username)
	require.Equal(t, "admin", actor.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "wrong"})
	require.Error(t, err)

	_, err = auth.Login(domain.LoginRequest{Username: "ghost", Password: "whatever"})
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.ParseToken("not.a.token")
	require.Error(t, err)

	_, err = auth.ParseToken("")
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-secret")
	auth := NewAuthManager("test-secret-0123456789-0123456789", time.Nanosecond, memory.New())

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin-secret"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = auth.ParseToken(resp.AccessToken)
	require.Error(t, err)
}

func TestCreateCashierValidation(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "ab", Password: "secret123"})
	require.Error(t, err)

	_, err = auth.CreateCashier(domain.CashierCreateRequest{Username: "valid", Password: "123"})
	require.Error(t, err)

	created, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "Valid", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, "valid", created.Username)
	require.Equal(t, "cashier", created.Role)

	_, err = auth.CreateCashier(domain.CashierCreateRequest{Username: "valid", Password: "secret123"})
	require.Error(t, err)
}

func TestListCashiersExcludesAdmins(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "extra", Password: "secret123"})
	require.NoError(t, err)

	cashiers := auth.ListCashiers()
	for _, c := range cashiers {
		require.Equal(t, "cashier", c.Role)
	}
	require.GreaterOrEqual(t, len(cashiers), 2)
}

func TestBootstrapUpgradesPlaintextPasswords(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-secret")
	repo := memory.New()
	require.NoError(t, repo.CreateUser(context.Background(), &domain.UserAccount{
		Username:  "legacy",
		Password:  "plain-text-pass",
		Role:      "cashier",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}))

	auth := NewAuthManager("test-secret-0123456789-0123456789", time.Hour, repo)

	// Login works with the original password against the upgraded hash.
	_, err := auth.Login(domain.LoginRequest{Username: "legacy", Password: "plain-text-pass"})
	require.NoError(t, err)

	stored, err := repo.GetUser(context.Background(), "legacy")
	require.NoError(t, err)
	require.True(t, isPasswordHash(stored.Password))
}
