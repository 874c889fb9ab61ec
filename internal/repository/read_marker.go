package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chattyapp/chatty/internal/model"
)

type IReadMarkerRepository interface {
	Replace(ctx context.Context, userID, groupID string, messageID int64) error
	Get(ctx context.Context, userID, groupID string) (*model.ReadMarker, error)
}

type ReadMarkerRepository struct {
	db *gorm.DB
}

func NewReadMarkerRepository(db *gorm.DB) IReadMarkerRepository {
	return &ReadMarkerRepository{db: db}
}

// Replace swaps the (user, group) marker in a single upsert. The composite
// primary key plus ON CONFLICT keeps the row count at exactly one even
// under concurrent updates.
func (r *ReadMarkerRepository) Replace(ctx context.Context, userID, groupID string, messageID int64) error {
	marker := &model.ReadMarker{
		UserID:    userID,
		GroupID:   groupID,
		MessageID: messageID,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"message_id", "updated_at"}),
	}).Create(marker).Error
}

func (r *ReadMarkerRepository) Get(ctx context.Context, userID, groupID string) (*model.ReadMarker, error) {
	var marker model.ReadMarker
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&marker).Error
	if err != nil {
		return nil, err
	}
	return &marker, nil
}
