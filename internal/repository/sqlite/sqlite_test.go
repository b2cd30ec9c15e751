package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"contact-keeper/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewContactRepository(db).Init(ctx))
	return db
}

func seedUser(t *testing.T, db *sql.DB, email string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         "user " + email,
		Email:        email,
		PasswordHash: "hash",
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}
