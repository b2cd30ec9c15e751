package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"contact-keeper/internal/domain"
	"contact-keeper/internal/repository/sqlite"
)

type testEnv struct {
	users    *userService
	contacts ContactService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	contactRepo := sqlite.NewContactRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, contactRepo.Init(ctx))

	users := NewUserService(userRepo).(*userService)
	users.cost = bcrypt.MinCost

	return &testEnv{
		users:    users,
		contacts: NewContactService(contactRepo),
	}
}

func (e *testEnv) register(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), "user", email, "secret123")
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }
