package model

import "time"

// ReadMarker points at the last message a user has seen in a group.
// The unique index keeps at most one row per (user, group) pair; updates
// go through an upsert so the pair is replaced, never duplicated.
type ReadMarker struct {
	UserID    string `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	GroupID   string `gorm:"primaryKey;type:varchar(64)" json:"group_id"`
	MessageID int64  `gorm:"not null" json:"message_id"`

	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ReadMarker) TableName() string {
	return "read_markers"
}
