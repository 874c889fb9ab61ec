package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chattyapp/chatty/internal/bus"
	"github.com/chattyapp/chatty/internal/model"
	"github.com/chattyapp/chatty/internal/repository"
)

// UpdateGroupRequest carries the optional fields of updateGroup. LastRead
// replaces the caller's read marker with the given message id.
type UpdateGroupRequest struct {
	Name     *string `json:"name"`
	LastRead *int64  `json:"last_read"`
}

type IGroupService interface {
	CreateGroup(ctx context.Context, caller *Identity, name string, memberIDs []string) (*model.Group, error)
	UpdateGroup(ctx context.Context, caller *Identity, groupID string, req UpdateGroupRequest) (*model.Group, error)
	LeaveGroup(ctx context.Context, caller *Identity, groupID string) (string, error)
	DeleteGroup(ctx context.Context, caller *Identity, groupID string) (*model.Group, error)
	GetGroup(ctx context.Context, caller *Identity, groupID string) (*model.Group, error)
	UnreadCount(ctx context.Context, caller *Identity, groupID string) (int64, error)
}

type GroupService struct {
	groupRepo   repository.IGroupRepository
	messageRepo repository.IMessageRepository
	markerRepo  repository.IReadMarkerRepository
	broker      *bus.Broker
}

func NewGroupService(
	groupRepo repository.IGroupRepository,
	messageRepo repository.IMessageRepository,
	markerRepo repository.IReadMarkerRepository,
	broker *bus.Broker,
) IGroupService {
	return &GroupService{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		markerRepo:  markerRepo,
		broker:      broker,
	}
}

// CreateGroup creates the group with the caller as member index 0 and
// publishes the event; invited members learn about the group over their
// live subscription, the creator from the return value.
func (s *GroupService) CreateGroup(ctx context.Context, caller *Identity, name string, memberIDs []string) (*model.Group, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if name == "" {
		return nil, fmt.Errorf("%w: group name must not be empty", ErrValidation)
	}

	members := make([]string, 0, len(memberIDs)+1)
	members = append(members, caller.ID)
	seen := map[string]struct{}{caller.ID: {}}
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}

	group := &model.Group{
		ID:   uuid.New().String(),
		Name: name,
	}
	if err := s.groupRepo.Create(ctx, group, members); err != nil {
		return nil, storeError("create group", err)
	}
	group.MemberIDs = members

	s.broker.Publish(&bus.Event{Topic: bus.TopicGroupCreated, Group: group})

	return group, nil
}

// UpdateGroup renames the group and/or replaces the caller's read marker.
// The marker replace is a single atomic upsert so concurrent updates can
// never leave two markers for one (user, group) pair.
func (s *GroupService) UpdateGroup(ctx context.Context, caller *Identity, groupID string, req UpdateGroupRequest) (*model.Group, error) {
	if err := requireMember(ctx, s.groupRepo, caller, groupID); err != nil {
		return nil, err
	}

	if req.LastRead != nil {
		if err := s.markerRepo.Replace(ctx, caller.ID, groupID, *req.LastRead); err != nil {
			return nil, storeError("replace read marker", err)
		}
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: group name must not be empty", ErrValidation)
		}
		if err := s.groupRepo.Rename(ctx, groupID, *req.Name); err != nil {
			return nil, storeError("rename group", err)
		}
	}

	return s.loadGroup(ctx, groupID)
}

// LeaveGroup removes the caller; the last member leaving deletes the
// group and everything it owns.
func (s *GroupService) LeaveGroup(ctx context.Context, caller *Identity, groupID string) (string, error) {
	if err := requireMember(ctx, s.groupRepo, caller, groupID); err != nil {
		return "", err
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, caller.ID); err != nil {
		return "", storeError("remove member", err)
	}

	remaining, err := s.groupRepo.CountMembers(ctx, groupID)
	if err != nil {
		return "", storeError("count members", err)
	}
	if remaining == 0 {
		if err := s.groupRepo.Delete(ctx, groupID); err != nil {
			return "", storeError("delete empty group", err)
		}
	}

	return groupID, nil
}

// DeleteGroup purges the group, its messages, and its read markers, and
// returns a pre-deletion snapshot.
func (s *GroupService) DeleteGroup(ctx context.Context, caller *Identity, groupID string) (*model.Group, error) {
	if err := requireMember(ctx, s.groupRepo, caller, groupID); err != nil {
		return nil, err
	}

	snapshot, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := s.groupRepo.Delete(ctx, groupID); err != nil {
		return nil, storeError("delete group", err)
	}
	return snapshot, nil
}

func (s *GroupService) GetGroup(ctx context.Context, caller *Identity, groupID string) (*model.Group, error) {
	if err := requireMember(ctx, s.groupRepo, caller, groupID); err != nil {
		return nil, err
	}
	return s.loadGroup(ctx, groupID)
}

// UnreadCount reports how many messages arrived after the caller's read
// marker, or the whole log when no marker exists yet. Comparison is by
// message id, the same ordering key pagination uses.
func (s *GroupService) UnreadCount(ctx context.Context, caller *Identity, groupID string) (int64, error) {
	if err := requireMember(ctx, s.groupRepo, caller, groupID); err != nil {
		return 0, err
	}

	marker, err := s.markerRepo.Get(ctx, caller.ID, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			count, err := s.messageRepo.CountByGroup(ctx, groupID)
			if err != nil {
				return 0, storeError("count messages", err)
			}
			return count, nil
		}
		return 0, storeError("load read marker", err)
	}

	count, err := s.messageRepo.CountAfterID(ctx, groupID, marker.MessageID)
	if err != nil {
		return 0, storeError("count unread messages", err)
	}
	return count, nil
}

func (s *GroupService) loadGroup(ctx context.Context, groupID string) (*model.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, storeError("load group", err)
	}
	memberIDs, err := s.groupRepo.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, storeError("load members", err)
	}
	group.MemberIDs = memberIDs
	return group, nil
}
