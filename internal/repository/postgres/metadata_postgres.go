package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pdfstore/internal/model"
	"pdfstore/internal/repository"
)

// MetadataPostgres is a PostgreSQL implementation of repository.MetadataRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type MetadataPostgres struct {
	db *sql.DB
}

// NewMetadataPostgres creates a new MetadataPostgres repository.
func NewMetadataPostgres(db *sql.DB) *MetadataPostgres {
	return &MetadataPostgres{db: db}
}

var _ repository.MetadataRepository = (*MetadataPostgres)(nil)

const selectColumns = `id, original_name, buyer_name, upload_date, file_size, content_type`

// Save inserts the record, or replaces it if the id already exists.
func (r *MetadataPostgres) Save(ctx context.Context, meta *model.Metadata) error {
	const q = `
		INSERT INTO pdf_documents (id, original_name, buyer_name, upload_date, file_size, content_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			original_name = EXCLUDED.original_name,
			buyer_name    = EXCLUDED.buyer_name,
			file_size     = EXCLUDED.file_size,
			content_type  = EXCLUDED.content_type
	`
	_, err := r.db.ExecContext(ctx, q,
		meta.ID,
		meta.OriginalName,
		meta.BuyerName,
		meta.UploadDate,
		meta.FileSize,
		meta.ContentType,
	)
	return err
}

// FindByID fetches a single record by its ID.
func (r *MetadataPostgres) FindByID(ctx context.Context, id string) (*model.Metadata, error) {
	const q = `SELECT ` + selectColumns + ` FROM pdf_documents WHERE id = $1`
	row := r.db.QueryRowContext(ctx, q, id)
	m, err := scanMetadata(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns every record, newest first.
func (r *MetadataPostgres) List(ctx context.Context) ([]model.Metadata, error) {
	const q = `SELECT ` + selectColumns + ` FROM pdf_documents ORDER BY upload_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Metadata, 0)
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a record by ID. It does not return an error if the row does not exist.
func (r *MetadataPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM pdf_documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(s scanner) (*model.Metadata, error) {
	var m model.Metadata
	if err := s.Scan(
		&m.ID,
		&m.OriginalName,
		&m.BuyerName,
		&m.UploadDate,
		&m.FileSize,
		&m.ContentType,
	); err != nil {
		return nil, err
	}
	// pgx hands TIMESTAMPTZ back in the session zone.
	m.UploadDate = m.UploadDate.UTC()
	return &m, nil
}
