package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/recipes/internal/metrics"
	"github.com/mmynk/recipes/internal/models"
	"github.com/mmynk/recipes/internal/storage"
)

// ErrBlankName is returned for tag and ingredient names that are empty once
// surrounding whitespace is trimmed.
var ErrBlankName = errors.New("name may not be blank")

// cleanName trims name and rejects blank results.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBlankName
	}
	return name, nil
}

// AttributeService manages one kind of recipe attribute (tags or ingredients).
// Every call is scoped to the owner passed in.
type AttributeService struct {
	kind   models.AttributeKind
	store  storage.Catalog
	logger *slog.Logger
}

// NewAttributeService creates a service for the given attribute kind.
func NewAttributeService(kind models.AttributeKind, store storage.Catalog, logger *slog.Logger) *AttributeService {
	return &AttributeService{
		kind:   kind,
		store:  store,
		logger: logger.With("kind", string(kind)),
	}
}

// Kind returns the attribute kind this service manages.
func (s *AttributeService) Kind() models.AttributeKind {
	return s.kind
}

// List returns the owner's attributes, name descending.
func (s *AttributeService) List(ctx context.Context, ownerID int64, filter storage.ListFilter) ([]models.Attribute, error) {
	attrs, err := s.store.ListAttributes(ctx, ownerID, s.kind, filter)
	if err != nil {
		s.logger.Error("List failed", "user_id", ownerID, "error", err)
		return nil, err
	}

	s.logger.Debug("List successful", "user_id", ownerID, "assigned_only", filter.AssignedOnly, "count", len(attrs))
	return attrs, nil
}

// Create stores a new attribute owned by ownerID. The name is trimmed.
func (s *AttributeService) Create(ctx context.Context, ownerID int64, name string) (*models.Attribute, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	attr := &models.Attribute{UserID: ownerID, Name: name}
	if err := s.store.CreateAttribute(ctx, s.kind, attr); err != nil {
		s.logger.Error("Create failed", "user_id", ownerID, "error", err)
		return nil, err
	}

	metrics.RecordCatalogOperation(string(s.kind), "create")
	s.logger.Info("Attribute created", "user_id", ownerID, "id", attr.ID)
	return attr, nil
}

// Get returns one of the owner's attributes.
func (s *AttributeService) Get(ctx context.Context, ownerID, id int64) (*models.Attribute, error) {
	return s.store.GetAttribute(ctx, ownerID, s.kind, id)
}

// AttributeUpdate carries a partial update. A nil Name leaves the name as is.
type AttributeUpdate struct {
	Name *string
}

// Update applies upd to one of the owner's attributes. Ownership never changes.
func (s *AttributeService) Update(ctx context.Context, ownerID, id int64, upd AttributeUpdate) (*models.Attribute, error) {
	if upd.Name == nil {
		return s.store.GetAttribute(ctx, ownerID, s.kind, id)
	}

	name, err := cleanName(*upd.Name)
	if err != nil {
		return nil, err
	}

	attr, err := s.store.UpdateAttribute(ctx, ownerID, s.kind, id, name)
	if err != nil {
		s.logger.Warn("Update failed", "user_id", ownerID, "id", id, "error", err)
		return nil, err
	}

	metrics.RecordCatalogOperation(string(s.kind), "update")
	s.logger.Info("Attribute updated", "user_id", ownerID, "id", id)
	return attr, nil
}

// Delete removes one of the owner's attributes.
func (s *AttributeService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteAttribute(ctx, ownerID, s.kind, id); err != nil {
		s.logger.Warn("Delete failed", "user_id", ownerID, "id", id, "error", err)
		return err
	}

	metrics.RecordCatalogOperation(string(s.kind), "delete")
	s.logger.Info("Attribute deleted", "user_id", ownerID, "id", id)
	return nil
}
