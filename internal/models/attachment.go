package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a file row exclusively owned by its comment. The blob itself
// lives on disk at StoragePath and is removed asynchronously by the cleanup
// worker after the row is gone.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Filename    string    `gorm:"size:255;not null" json:"filename"`
	Mimetype    string    `gorm:"size:100;not null" json:"mimetype"`
	StoragePath string    `gorm:"size:512;not null" json:"storage_path"`
	CommentID   uuid.UUID `gorm:"type:uuid;not null;index:idx_attachment_comment" json:"comment_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
