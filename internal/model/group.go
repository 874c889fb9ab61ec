package model

import "time"

type Group struct {
	ID   string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name string `gorm:"not null;type:varchar(255)" json:"name"`

	// Populated by the group repository; creator is always index 0.
	MemberIDs []string `gorm:"-" json:"member_ids,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}

type GroupMember struct {
	ID      string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID string `gorm:"index;uniqueIndex:idx_group_user;not null;type:varchar(64)" json:"group_id"`
	UserID  string `gorm:"index;uniqueIndex:idx_group_user;not null;type:varchar(64)" json:"user_id"`

	// Kept so member listings can put the creator first.
	Position int `gorm:"not null;default:0" json:"-"`

	JoinedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
