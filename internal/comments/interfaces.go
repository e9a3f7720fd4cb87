package comments

import (
	"context"

	"commentd/internal/models"

	"github.com/google/uuid"
)

// Repository defines the data access contract for comments and their
// attachments. Every write method runs inside a single transaction; nothing
// is partially applied on failure.
type Repository interface {
	// FindByID retrieves a comment with its author and attachments.
	// Returns ErrCommentNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)

	// ListRoots retrieves one page of top-level comments matching the
	// normalized query, each eager-loaded with author, direct replies and
	// attachments, plus the total number of matching roots.
	ListRoots(ctx context.Context, q ListQuery) ([]models.Comment, int64, error)

	// Create inserts the comment and its attachment rows atomically. The
	// parent reference, if set, is resolved inside the same transaction;
	// a dangling reference fails with ErrParentNotFound and writes nothing.
	Create(ctx context.Context, comment *models.Comment, attachments []models.Attachment) error

	// Update persists the comment's text when updateText is set and, when
	// replace is true, swaps its attachment rows for the given set, all in
	// the same transaction. An attachment-only update leaves the comment
	// row untouched. Returns the storage paths of the replaced attachments
	// so their blobs can be dispatched for cleanup after commit.
	Update(ctx context.Context, comment *models.Comment, attachments []models.Attachment, updateText, replace bool) ([]string, error)

	// DeleteTree removes the comment, every descendant reply, and all their
	// attachment rows in one transaction. Returns the storage paths of every
	// removed attachment.
	DeleteTree(ctx context.Context, id uuid.UUID) ([]string, error)
}

// ListingCache is the read-through cache over the listing namespace. The
// service treats every cache failure as a miss or a no-op; the store stays
// authoritative.
type ListingCache interface {
	// Get returns the cached payload for the key, reporting ok=false on miss.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// Set stores the payload under the key with the configured TTL.
	Set(ctx context.Context, key string, payload []byte) error

	// Purge drops every entry in the listing namespace.
	Purge(ctx context.Context) error
}

// Publisher hands blob paths to the durable delete-job queue for the cleanup
// worker. Dispatch happens only after the owning transaction committed.
type Publisher interface {
	PublishDelete(ctx context.Context, files []string) error
}
