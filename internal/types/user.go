package types

import (
	"time"

	"github.com/google/uuid"
)

// User is an anonymous identity keyed by a browser cookie. There are no
// credentials; whoever presents the cookie is the user.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CookieID  string    `gorm:"uniqueIndex;not null;column:cookie_id" json:"cookie_id"`
	Name      *string   `gorm:"column:name" json:"name,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }
