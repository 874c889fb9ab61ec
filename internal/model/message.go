package model

import (
	"time"
)

// Message is immutable once created. The snowflake ID increases with
// insertion order and is the ordering key pagination relies on.
type Message struct {
	ID      int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	GroupID string `gorm:"index;not null;type:varchar(64)" json:"group_id"`
	UserID  string `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	Text    string `gorm:"type:text;not null" json:"text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
