package repository

import (
	"context"

	"pdfstore/internal/model"
)

// MetadataRepository persists the metadata record that accompanies each stored PDF.
// No business logic here, strictly persistence operations.
type MetadataRepository interface {
	// Save writes the record for meta.ID, replacing any existing one.
	Save(ctx context.Context, meta *model.Metadata) error

	// FindByID returns the record for id or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Metadata, error)

	// List returns every stored record. Order is unspecified.
	List(ctx context.Context) ([]model.Metadata, error)

	// Delete removes the record for id. It returns nil if the record did not exist.
	Delete(ctx context.Context, id string) error
}
