package domain

import (
	"strings"
	"time"
)

// DefaultContactType is assigned when a contact is created without a type.
const DefaultContactType = "personal"

// Contact is a single address book entry owned by exactly one user.
type Contact struct {
	ID        string
	OwnerID   string
	Name      string
	Email     string
	Phone     string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactPatch carries a sparse update. A nil field is left untouched.
type ContactPatch struct {
	Name  *string
	Email *string
	Phone *string
	Type  *string
}

// Normalize drops fields holding empty or whitespace-only strings so that they
// are treated as absent.
func (p ContactPatch) Normalize() ContactPatch {
	return ContactPatch{
		Name:  nonEmpty(p.Name),
		Email: nonEmpty(p.Email),
		Phone: nonEmpty(p.Phone),
		Type:  nonEmpty(p.Type),
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p ContactPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Type == nil
}

// Apply merges the present fields into c.
func (p ContactPatch) Apply(c *Contact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
}

func nonEmpty(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}
