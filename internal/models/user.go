package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity owned by the external auth system. Rows exist
// locally so listings can join on username/email; they are never created or
// mutated through this service's API.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Username  string    `gorm:"size:100;not null;index:idx_user_username" json:"username"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	HomePage  string    `gorm:"size:255" json:"home_page,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Comments []Comment `gorm:"foreignKey:AuthorID" json:"-"`
}
