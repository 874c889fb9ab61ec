package service

import (
	"context"
	"fmt"
	"time"

	"github.com/chattyapp/chatty/internal/bus"
	"github.com/chattyapp/chatty/internal/model"
	"github.com/chattyapp/chatty/internal/pagination"
	"github.com/chattyapp/chatty/internal/repository"
	"github.com/chattyapp/chatty/utils/snowflake"
)

// ListOptions selects one page of a group's reverse-chronological log.
// After restricts to messages strictly older than its cursor, Before to
// strictly newer. Exactly one of First/Last bounds the page size; with
// neither set the whole filtered range is returned (legacy fetch-all).
type ListOptions struct {
	First  int
	Last   int
	After  string
	Before string
}

type IMessageService interface {
	CreateMessage(ctx context.Context, caller *Identity, groupID, text string) (*model.Message, error)
	ListMessages(ctx context.Context, caller *Identity, groupID string, opts ListOptions) (*pagination.Connection, error)
}

type MessageService struct {
	messageRepo repository.IMessageRepository
	groupRepo   repository.IGroupRepository
	idGen       *snowflake.Generator
	broker      *bus.Broker
}

func NewMessageService(
	messageRepo repository.IMessageRepository,
	groupRepo repository.IGroupRepository,
	idGen *snowflake.Generator,
	broker *bus.Broker,
) IMessageService {
	return &MessageService{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		idGen:       idGen,
		broker:      broker,
	}
}

// CreateMessage appends to the group log and publishes the event. The
// publish is asynchronous: the caller gets the message back without
// waiting for fan-out.
func (s *MessageService) CreateMessage(ctx context.Context, caller *Identity, groupID, text string) (*model.Message, error) {
	if err := requireMember(ctx, s.groupRepo, caller, groupID); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("%w: message text must not be empty", ErrValidation)
	}

	id, err := s.idGen.NextID()
	if err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	message := &model.Message{
		ID:        id,
		GroupID:   groupID,
		UserID:    caller.ID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, storeError("append message", err)
	}

	s.broker.Publish(&bus.Event{Topic: bus.TopicMessageCreated, Message: message})

	return message, nil
}

// ListMessages pages the group log newest-first.
//
// A cursor that no longer matches a stored row is not an error; its
// decoded id still works as a range boundary.
func (s *MessageService) ListMessages(ctx context.Context, caller *Identity, groupID string, opts ListOptions) (*pagination.Connection, error) {
	if err := requireMember(ctx, s.groupRepo, caller, groupID); err != nil {
		return nil, err
	}
	if opts.First < 0 || opts.Last < 0 {
		return nil, fmt.Errorf("%w: page size must not be negative", ErrValidation)
	}
	if opts.First > 0 && opts.Last > 0 {
		return nil, fmt.Errorf("%w: first and last are mutually exclusive", ErrValidation)
	}

	filter := repository.RangeFilter{Limit: opts.First}
	if filter.Limit == 0 {
		filter.Limit = opts.Last
	}

	if opts.After != "" {
		id, err := pagination.DecodeCursor(opts.After)
		if err != nil {
			return nil, fmt.Errorf("%w: after cursor: %v", ErrValidation, err)
		}
		filter.AfterID = id
	}
	if opts.Before != "" {
		id, err := pagination.DecodeCursor(opts.Before)
		if err != nil {
			return nil, fmt.Errorf("%w: before cursor: %v", ErrValidation, err)
		}
		filter.BeforeID = id
	}

	messages, err := s.messageRepo.RangeByGroup(ctx, groupID, filter)
	if err != nil {
		return nil, storeError("range messages", err)
	}

	pageInfo, err := s.pageInfo(ctx, groupID, filter, messages)
	if err != nil {
		return nil, err
	}

	return pagination.NewConnection(messages, pageInfo), nil
}

// pageInfo computes the boundary flags with dedicated existence probes
// instead of over-fetching. Rows are ordered newest-first; the travel
// direction is toward older messages unless a before cursor was given.
func (s *MessageService) pageInfo(ctx context.Context, groupID string, filter repository.RangeFilter, messages []*model.Message) (pagination.PageInfo, error) {
	var info pagination.PageInfo
	towardNewer := filter.BeforeID > 0

	if len(messages) == 0 {
		// A cursor into an empty range can still have messages on its
		// opposite side.
		boundary := filter.AfterID
		if towardNewer {
			boundary = filter.BeforeID
		}
		if boundary > 0 {
			exists, err := s.messageRepo.ExistsBeyond(ctx, groupID, boundary, !towardNewer)
			if err != nil {
				return info, storeError("probe page boundary", err)
			}
			info.HasPreviousPage = exists
		}
		return info, nil
	}

	newest := messages[0].ID
	oldest := messages[len(messages)-1].ID

	// A short page already proves the range is exhausted.
	if filter.Limit > 0 && len(messages) == filter.Limit {
		edge := oldest
		if towardNewer {
			edge = newest
		}
		exists, err := s.messageRepo.ExistsBeyond(ctx, groupID, edge, towardNewer)
		if err != nil {
			return info, storeError("probe next page", err)
		}
		info.HasNextPage = exists
	}

	opposite := newest
	if towardNewer {
		opposite = oldest
	}
	exists, err := s.messageRepo.ExistsBeyond(ctx, groupID, opposite, !towardNewer)
	if err != nil {
		return info, storeError("probe previous page", err)
	}
	info.HasPreviousPage = exists

	return info, nil
}
