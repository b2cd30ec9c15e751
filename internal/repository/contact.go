package repository

import (
	"context"

	"contact-keeper/internal/domain"
)

// ContactRepository exposes persistence operations for contacts. It does not
// check ownership; callers scope every mutation to the owner first.
type ContactRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, contact *domain.Contact) error
	Get(ctx context.Context, id string) (*domain.Contact, error)
	// ListByOwner returns the owner's contacts, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Contact, error)
	Update(ctx context.Context, id string, patch domain.ContactPatch) (*domain.Contact, error)
	Delete(ctx context.Context, id string) error
}
