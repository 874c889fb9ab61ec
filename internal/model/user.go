package model

import (
	"time"
)

// User account. CredentialVersion is embedded in every issued token and
// compared on resolution, so bumping it invalidates outstanding tokens.
type User struct {
	ID                string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Username          string `gorm:"uniqueIndex;not null;type:varchar(255)" json:"username"`
	Email             string `gorm:"uniqueIndex;not null;type:varchar(255)" json:"email"`
	PasswordHash      string `gorm:"not null;type:varchar(255)" json:"-"`
	CredentialVersion int    `gorm:"not null;default:1" json:"-"`

	Friends []*User `gorm:"many2many:friendships;joinForeignKey:UserID;joinReferences:FriendID" json:"friends,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
