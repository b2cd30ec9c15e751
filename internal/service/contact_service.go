package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contact-keeper/internal/domain"
	"contact-keeper/internal/repository"
)

// NewContact holds the fields accepted when creating a contact.
type NewContact struct {
	Name  string
	Email string
	Phone string
	Type  string
}

// ContactService is the owner-scoped CRUD surface over contacts. Every method
// takes the authenticated owner id; none accepts an owner from input.
type ContactService interface {
	List(ctx context.Context, ownerID string) ([]domain.Contact, error)
	Create(ctx context.Context, ownerID string, input NewContact) (*domain.Contact, error)
	Update(ctx context.Context, ownerID, contactID string, patch domain.ContactPatch) (*domain.Contact, error)
	Delete(ctx context.Context, ownerID, contactID string) error
}

type contactService struct {
	contacts repository.ContactRepository
}

func NewContactService(contacts repository.ContactRepository) ContactService {
	return &contactService{contacts: contacts}
}

func (s *contactService) List(ctx context.Context, ownerID string) ([]domain.Contact, error) {
	contacts, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *contactService) Create(ctx context.Context, ownerID string, input NewContact) (*domain.Contact, error) {
	var verr ValidationError
	if strings.TrimSpace(input.Name) == "" {
		verr.Add("name", "name is required", input.Name)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	contact := &domain.Contact{
		OwnerID: ownerID,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Type:    input.Type,
	}
	if contact.Type == "" {
		contact.Type = domain.DefaultContactType
	}

	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

func (s *contactService) Update(ctx context.Context, ownerID, contactID string, patch domain.ContactPatch) (*domain.Contact, error) {
	current, err := s.owned(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}

	patch = patch.Normalize()
	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := s.contacts.Update(ctx, contactID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return updated, nil
}

func (s *contactService) Delete(ctx context.Context, ownerID, contactID string) error {
	if _, err := s.owned(ctx, ownerID, contactID); err != nil {
		return err
	}

	if err := s.contacts.Delete(ctx, contactID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContactNotFound
		}
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// owned loads the contact and checks it belongs to ownerID. Existence is
// checked before ownership.
func (s *contactService) owned(ctx context.Context, ownerID, contactID string) (*domain.Contact, error) {
	contact, err := s.contacts.Get(ctx, contactID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("load contact: %w", err)
	}
	if contact.OwnerID != ownerID {
		return nil, ErrNotAuthorized
	}
	return contact, nil
}
