package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"contact-keeper/internal/domain"
	"contact-keeper/internal/storage"
)

// ExportConfig points exports at an object storage bucket.
type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// ExportService writes owner-scoped contact snapshots to object storage.
type ExportService interface {
	Export(ctx context.Context, ownerID string) (*domain.Export, error)
	List(ctx context.Context, ownerID string) ([]storage.ObjectInfo, error)
	Purge(ctx context.Context, ownerID string) error
}

type exportService struct {
	contacts ContactService
	store    storage.Service
	cfg      ExportConfig
	now      func() time.Time
}

func NewExportService(contacts ContactService, store storage.Service, cfg ExportConfig) ExportService {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &exportService{
		contacts: contacts,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
	}
}

type snapshot struct {
	Owner      string            `json:"owner"`
	ExportedAt time.Time         `json:"exported_at"`
	Contacts   []snapshotContact `json:"contacts"`
}

type snapshotContact struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
	Type  string    `json:"type"`
	Date  time.Time `json:"date"`
}

func (s *exportService) Export(ctx context.Context, ownerID string) (*domain.Export, error) {
	if !s.enabled() {
		return nil, ErrExportsDisabled
	}

	contacts, err := s.contacts.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	snap := snapshot{
		Owner:      ownerID,
		ExportedAt: now,
		Contacts:   make([]snapshotContact, len(contacts)),
	}
	for i, c := range contacts {
		snap.Contacts[i] = snapshotContact{
			ID:    c.ID,
			Name:  c.Name,
			Email: c.Email,
			Phone: c.Phone,
			Type:  c.Type,
			Date:  c.CreatedAt,
		}
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := path.Join(s.ownerPrefix(ownerID), fmt.Sprintf("%d.json", now.UnixNano()))
	location, err := s.store.PutObject(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	url, err := s.store.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign export url: %w", err)
	}

	return &domain.Export{
		Key:       key,
		Location:  location,
		URL:       url,
		Count:     len(contacts),
		CreatedAt: now,
	}, nil
}

func (s *exportService) List(ctx context.Context, ownerID string) ([]storage.ObjectInfo, error) {
	if !s.enabled() {
		return nil, ErrExportsDisabled
	}
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, s.ownerPrefix(ownerID)+"/")
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return objects, nil
}

func (s *exportService) Purge(ctx context.Context, ownerID string) error {
	if !s.enabled() {
		return ErrExportsDisabled
	}
	if err := s.store.DeletePrefix(ctx, s.cfg.Bucket, s.ownerPrefix(ownerID)+"/"); err != nil {
		return fmt.Errorf("purge exports: %w", err)
	}
	return nil
}

func (s *exportService) enabled() bool {
	return s.store != nil && s.cfg.Bucket != ""
}

func (s *exportService) ownerPrefix(ownerID string) string {
	if s.cfg.KeyPrefix == "" {
		return ownerID
	}
	return s.cfg.KeyPrefix + "/" + ownerID
}
