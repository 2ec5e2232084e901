package media

import (
	"context"
	"strings"
)

// Store is the storage backend for derivative files. Implementations write
// bytes under a tier-relative path ("original/abc.jpg") and return a durable
// public URL for it. Every other component depends only on this interface;
// switching backends must not change the shape of a DerivativeSet.
type Store interface {
	// Put writes data under path and returns the public URL. When upsert is
	// false an existing object at path is an error rather than an implicit
	// overwrite.
	Put(ctx context.Context, path string, data []byte, contentType string, upsert bool) (string, error)
	// Get reads a stored object back. Used by the consistency jobs to
	// re-derive metadata and reprocess derivatives from stored originals.
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
	// Exists reports whether an object is present at path.
	Exists(ctx context.Context, path string) (bool, error)
	// URL returns the public URL an object at path would be served under.
	URL(path string) string
}

// CanonicalOriginalPrefix returns the URL prefix every canonical original
// lives under for the given store. The backfill job uses it as its
// idempotency check: references already carrying this prefix were produced
// by this pipeline and are skipped.
func CanonicalOriginalPrefix(s Store) string {
	return strings.TrimRight(s.URL(string(TierOriginal)), "/") + "/"
}
