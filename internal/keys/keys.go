// Package keys derives document identifiers and the storage keys addressed by them.
package keys

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random version 4 UUID. Collisions are treated as impossible; no retry is made.
func NewID() string {
	return uuid.NewString()
}

// Valid reports whether id has the shape of an identifier produced by NewID.
func Valid(id string) bool {
	// uuid.Parse also accepts braced, urn and unhyphenated forms.
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Scheme maps a document id to its blob key and its metadata sidecar key.
type Scheme struct {
	blobPrefix     string
	blobSuffix     string
	metadataPrefix string
	metadataSuffix string
}

var (
	// ObjectStore lays documents out as pdfs/<id> and metadata/<id>.
	ObjectStore = Scheme{blobPrefix: "pdfs/", metadataPrefix: "metadata/"}

	// Filesystem lays documents out as <id>.pdf and <id>.json in a single directory.
	Filesystem = Scheme{blobSuffix: ".pdf", metadataSuffix: ".json"}
)

// ForBackend returns the scheme used by the named storage backend.
func ForBackend(backend string) Scheme {
	if backend == "filesystem" {
		return Filesystem
	}
	return ObjectStore
}

func (s Scheme) BlobKey(id string) string {
	return s.blobPrefix + id + s.blobSuffix
}

func (s Scheme) MetadataKey(id string) string {
	return s.metadataPrefix + id + s.metadataSuffix
}

// MetadataPrefix is the listing prefix under which all metadata keys live.
// For the filesystem scheme it is empty and keys are told apart by suffix.
func (s Scheme) MetadataPrefix() string {
	return s.metadataPrefix
}

// IDFromMetadataKey is the inverse of MetadataKey. It reports false for keys
// that are not metadata keys of this scheme (e.g. blobs sharing the prefix
// or stray files whose name is not a document id).
func (s Scheme) IDFromMetadataKey(key string) (string, bool) {
	if !strings.HasPrefix(key, s.metadataPrefix) || !strings.HasSuffix(key, s.metadataSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, s.metadataPrefix), s.metadataSuffix)
	if id == "" || strings.Contains(id, "/") || !Valid(id) {
		return "", false
	}
	return id, true
}
