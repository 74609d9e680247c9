package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"pdfstore/internal/keys"
	"pdfstore/internal/model"
	"pdfstore/internal/repository"
	"pdfstore/internal/storage"
)

var (
	ErrPDFRequired    = errors.New("pdf data is required")
	ErrInvalidPDFData = errors.New("pdf data is not valid base64")
	ErrNotFound       = errors.New("pdf not found")
)

const dataURLPrefix = "data:application/pdf;base64,"

// StorageError reports a failed backing store operation for a document.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err was caused by missing or malformed client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrPDFRequired) || errors.Is(err, ErrInvalidPDFData)
}

// UploadInput carries one PDF and its caller-supplied names.
// Size is the exact byte count, or -1 when unknown.
type UploadInput struct {
	Body         io.Reader
	Size         int64
	OriginalName string
	BuyerName    string
}

// Download is an open PDF ready to be streamed. The caller must close Body.
type Download struct {
	Body     io.ReadCloser
	Size     int64
	Filename string
}

// DocumentListResult is the service-level DTO for listed documents.
type DocumentListResult struct {
	Items []model.Metadata `json:"pdfs"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling PDF documents.
type DocumentService interface {
	// Upload writes the blob and then its metadata under a fresh id.
	Upload(ctx context.Context, in UploadInput) (*model.Metadata, error)

	// Open returns the blob for id. Missing metadata falls back to a default filename.
	Open(ctx context.Context, id string) (*Download, error)

	// Info returns the metadata record for id.
	Info(ctx context.Context, id string) (*model.Metadata, error)

	// List returns every record, newest upload first.
	List(ctx context.Context) (*DocumentListResult, error)

	// Delete removes both the blob and the metadata for id.
	Delete(ctx context.Context, id string) error

	// Ping checks the backing store.
	Ping(ctx context.Context) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.Storage
	repo   repository.MetadataRepository
	scheme keys.Scheme
	now    func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.MetadataRepository, scheme keys.Scheme) DocumentService {
	// TIMESTAMPTZ keeps microseconds; stored and echoed dates must match.
	return &documentService{
		store:  store,
		repo:   repo,
		scheme: scheme,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Metadata, error) {
	if in.Body == nil || in.Size == 0 {
		return nil, ErrPDFRequired
	}

	id := keys.NewID()
	key := s.scheme.BlobKey(id)

	objInfo, err := s.store.Put(ctx, key, in.Body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: model.PDFContentType,
	})
	if err != nil {
		return nil, &StorageError{Op: "put blob", ID: id, Err: err}
	}
	if objInfo.Size == 0 {
		_ = s.store.Delete(ctx, key)
		return nil, ErrPDFRequired
	}

	meta := &model.Metadata{
		ID:           id,
		OriginalName: orDefault(in.OriginalName, model.DefaultOriginalName),
		BuyerName:    orDefault(in.BuyerName, model.DefaultBuyerName),
		UploadDate:   s.now(),
		FileSize:     objInfo.Size,
		ContentType:  model.PDFContentType,
	}
	if err := s.repo.Save(ctx, meta); err != nil {
		// Remove the blob so it does not outlive a request that reported failure.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, &StorageError{Op: "put metadata", ID: id, Err: fmt.Errorf("%w; rollback delete failed: %v", err, delErr)}
		}
		return nil, &StorageError{Op: "put metadata", ID: id, Err: err}
	}
	return meta, nil
}

func (s *documentService) Open(ctx context.Context, id string) (*Download, error) {
	rc, info, err := s.store.Get(ctx, s.scheme.BlobKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get blob", ID: id, Err: err}
	}

	filename := model.DefaultOriginalName
	meta, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		filename = orDefault(meta.OriginalName, model.DefaultOriginalName)
	case errors.Is(err, repository.ErrNotFound):
	default:
		rc.Close()
		return nil, &StorageError{Op: "get metadata", ID: id, Err: err}
	}

	return &Download{Body: rc, Size: info.Size, Filename: filename}, nil
}

func (s *documentService) Info(ctx context.Context, id string) (*model.Metadata, error) {
	meta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get metadata", ID: id, Err: err}
	}
	return meta, nil
}

func (s *documentService) List(ctx context.Context) (*DocumentListResult, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list metadata", Err: err}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.UploadDate.Equal(b.UploadDate) {
			return a.UploadDate.After(b.UploadDate)
		}
		return a.ID > b.ID
	})
	return &DocumentListResult{Items: items, Total: len(items)}, nil
}

// Delete attempts both removals even if the first fails; no rollback is made.
func (s *documentService) Delete(ctx context.Context, id string) error {
	var errs []error
	if err := s.store.Delete(ctx, s.scheme.BlobKey(id)); err != nil {
		errs = append(errs, fmt.Errorf("delete blob: %w", err))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("delete metadata: %w", err))
	}
	if len(errs) > 0 {
		return &StorageError{Op: "delete", ID: id, Err: errors.Join(errs...)}
	}
	return nil
}

func (s *documentService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// DecodePDFData decodes a base64 PDF payload, accepting an optional
// "data:application/pdf;base64," data URL prefix.
func DecodePDFData(data string) ([]byte, error) {
	data = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(data), dataURLPrefix))
	if data == "" {
		return nil, ErrPDFRequired
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDFData, err)
	}
	if len(b) == 0 {
		return nil, ErrPDFRequired
	}
	return b, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
