package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a node in the comment forest. Root comments have a nil ParentID;
// replies reference an existing comment. Text is stored already sanitized.
type Comment struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Text     string     `gorm:"type:text;not null" json:"text"`
	AuthorID uuid.UUID  `gorm:"type:uuid;not null;index:idx_comment_author" json:"author_id"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_comment_parent" json:"parent_id"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_comment_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Author      User         `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
	Parent      *Comment     `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Replies     []Comment    `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:CommentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"attachments,omitempty"`
}

// IsRoot reports whether the comment is a top-level comment.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}
