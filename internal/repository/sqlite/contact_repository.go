package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"contact-keeper/internal/domain"
	"contact-keeper/internal/repository"
)

const (
	createContactsTable = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT 'personal',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createContactsOwnerIndex = `
CREATE INDEX IF NOT EXISTS idx_contacts_owner_created ON contacts (owner_id, created_at DESC);
`
	selectContactColumns = `SELECT id, owner_id, name, email, phone, type, created_at, updated_at FROM contacts`
)

type ContactRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewContactRepository(db *sql.DB) repository.ContactRepository {
	return &ContactRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *ContactRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createContactsTable); err != nil {
		return fmt.Errorf("create contacts table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createContactsOwnerIndex); err != nil {
		return fmt.Errorf("create contacts owner index: %w", err)
	}
	return nil
}

// Create inserts contact, assigning its id and timestamps.
func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	if contact.OwnerID == "" {
		return fmt.Errorf("insert contact: owner is required")
	}
	now := r.now()
	contact.ID = uuid.NewString()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO contacts (id, owner_id, name, email, phone, type, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.ID,
		contact.OwnerID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Type,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) Get(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx, selectContactColumns+` WHERE id = ?`, id)
	contact, err := scanContact(row)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		selectContactColumns+` WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// Update merges patch into the stored row and returns the result. owner_id
// and created_at are never written.
func (r *ContactRepository) Update(ctx context.Context, id string, patch domain.ContactPatch) (*domain.Contact, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, id)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update contact: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	contact, err := scanContact(tx.QueryRowContext(ctx, selectContactColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	patch.Apply(&contact)
	contact.UpdatedAt = r.now()

	if _, err := tx.ExecContext(ctx, `
UPDATE contacts SET name = ?, email = ?, phone = ?, type = ?, updated_at = ?
WHERE id = ?`,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Type,
		contact.UpdatedAt,
		contact.ID,
	); err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	stored, err := scanContact(tx.QueryRowContext(ctx, selectContactColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update contact: %w", err)
	}
	return &stored, nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete contact %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanContact(row rowScanner) (domain.Contact, error) {
	var contact domain.Contact
	if err := row.Scan(
		&contact.ID,
		&contact.OwnerID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.Type,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Contact{}, fmt.Errorf("contact: %w", repository.ErrNotFound)
		}
		return domain.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	return contact, nil
}

var _ repository.ContactRepository = (*ContactRepository)(nil)
