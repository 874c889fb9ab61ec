package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chattyapp/chatty/internal/model"
)

// RangeFilter restricts a reverse-chronological scan of a group's log.
// AfterID > 0 keeps only messages strictly older (id < AfterID);
// BeforeID > 0 keeps only messages strictly newer (id > BeforeID).
// Limit <= 0 means no limit.
type RangeFilter struct {
	AfterID  int64
	BeforeID int64
	Limit    int
}

type IMessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	FindByID(ctx context.Context, id int64) (*model.Message, error)
	RangeByGroup(ctx context.Context, groupID string, filter RangeFilter) ([]*model.Message, error)
	ExistsBeyond(ctx context.Context, groupID string, boundaryID int64, newer bool) (bool, error)
	CountByGroup(ctx context.Context, groupID string) (int64, error)
	CountAfterID(ctx context.Context, groupID string, messageID int64) (int64, error)
}

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) IMessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	var message model.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) RangeByGroup(ctx context.Context, groupID string, filter RangeFilter) ([]*model.Message, error) {
	var messages []*model.Message

	query := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if filter.AfterID > 0 {
		query = query.Where("id < ?", filter.AfterID)
	}
	if filter.BeforeID > 0 {
		query = query.Where("id > ?", filter.BeforeID)
	}
	query = query.Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// ExistsBeyond probes for at least one message past the boundary in the
// given direction without fetching a page.
func (r *MessageRepository) ExistsBeyond(ctx context.Context, groupID string, boundaryID int64, newer bool) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Message{}).Where("group_id = ?", groupID)
	if newer {
		query = query.Where("id > ?", boundaryID)
	} else {
		query = query.Where("id < ?", boundaryID)
	}
	if err := query.Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MessageRepository) CountByGroup(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) CountAfterID(ctx context.Context, groupID string, messageID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("group_id = ? AND id > ?", groupID, messageID).
		Count(&count).Error
	return count, err
}
