package storage

import (
	"context"
	"errors"
	"time"
)

// Default expiry duration for presigned upload URLs
const DefaultUploadURLExpiry = 5 * time.Minute

// MetadataUserID is the object metadata key that records the owning user.
// S3 lower-cases user metadata keys, so it is lower-case here as well.
const MetadataUserID = "userid"

// ErrObjectNotFound is returned by HeadObject when the key does not exist.
var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectMetadata describes a stored object.
type ObjectMetadata struct {
	Metadata     map[string]string // User metadata, keys lower-cased
	ContentType  string
	Size         int64
	LastModified time.Time
}

// UserID returns the owning user recorded at upload time, if any.
func (m *ObjectMetadata) UserID() (string, bool) {
	userID, ok := m.Metadata[MetadataUserID]
	return userID, ok && userID != ""
}

// AttachmentStorage defines the object storage operations for item attachments.
// The object key for an attachment is the todoId alone.
type AttachmentStorage interface {
	// UploadURL creates a temporary URL that allows a single PUT of the
	// attachment object, tagged with the owning user in object metadata.
	UploadURL(ctx context.Context, userID, todoID string) (string, error)

	// PublicURL returns the retrieval URL of the attachment object,
	// whether or not it has been uploaded.
	PublicURL(userID, todoID string) string

	// DeleteObject removes the attachment object. A missing object is not an error.
	DeleteObject(ctx context.Context, userID, todoID string) error

	// HeadObject fetches the metadata of a stored object.
	HeadObject(ctx context.Context, objectKey string) (*ObjectMetadata, error)
}

// AttachmentKey is the object key for a to-do item's attachment. It ignores
// userID: keys share one namespace and rely on todoId being globally unique.
func AttachmentKey(_ string, todoID string) string {
	return todoID
}
