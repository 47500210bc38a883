package docsystem

import "context"

// BlobSource fetches the bytes behind a transient object URL (a "blob:"
// handle) so they can be persisted as a data URL.
type BlobSource interface {
	// Fetch returns the content and MIME type stored under url.
	// Returns domain.ErrNotFound if the handle is unknown or revoked.
	Fetch(ctx context.Context, url string) (data []byte, mimeType string, err error)
}
