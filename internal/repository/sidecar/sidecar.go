package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pdfstore/internal/keys"
	"pdfstore/internal/model"
	"pdfstore/internal/repository"
	"pdfstore/internal/storage"
)

const jsonContentType = "application/json"

// MetadataSidecar stores each metadata record as a JSON object in the same
// Storage as the blobs, at the scheme's metadata key.
type MetadataSidecar struct {
	store  storage.Storage
	scheme keys.Scheme
}

// NewMetadataSidecar creates a sidecar repository over store.
func NewMetadataSidecar(store storage.Storage, scheme keys.Scheme) *MetadataSidecar {
	return &MetadataSidecar{store: store, scheme: scheme}
}

var _ repository.MetadataRepository = (*MetadataSidecar)(nil)

func (r *MetadataSidecar) Save(ctx context.Context, meta *model.Metadata) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = r.store.Put(ctx, r.scheme.MetadataKey(meta.ID), bytes.NewReader(b), storage.PutObjectOptions{
		Size:        int64(len(b)),
		ContentType: jsonContentType,
	})
	return err
}

func (r *MetadataSidecar) FindByID(ctx context.Context, id string) (*model.Metadata, error) {
	return r.read(ctx, r.scheme.MetadataKey(id))
}

// List reads every sidecar under the metadata prefix. Records deleted between
// the listing and the read are skipped.
func (r *MetadataSidecar) List(ctx context.Context) ([]model.Metadata, error) {
	objs, err := r.store.List(ctx, r.scheme.MetadataPrefix())
	if err != nil {
		return nil, err
	}

	items := make([]model.Metadata, 0, len(objs))
	for _, o := range objs {
		if _, ok := r.scheme.IDFromMetadataKey(o.Key); !ok {
			continue
		}
		meta, err := r.read(ctx, o.Key)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, *meta)
	}
	return items, nil
}

func (r *MetadataSidecar) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, r.scheme.MetadataKey(id))
}

func (r *MetadataSidecar) read(ctx context.Context, key string) (*model.Metadata, error) {
	rc, _, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	defer rc.Close()

	var meta model.Metadata
	if err := json.NewDecoder(rc).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", key, err)
	}
	return &meta, nil
}
