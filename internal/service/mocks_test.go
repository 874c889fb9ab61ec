package service

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/chattyapp/chatty/internal/model"
	"github.com/chattyapp/chatty/internal/repository"
)

// Map-backed mock repositories implementing the store adapter interfaces.

type MockMessageRepository struct {
	messages map[int64]*model.Message
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{messages: make(map[int64]*model.Message)}
}

func (m *MockMessageRepository) Create(_ context.Context, message *model.Message) error {
	m.messages[message.ID] = message
	return nil
}

func (m *MockMessageRepository) FindByID(_ context.Context, id int64) (*model.Message, error) {
	if msg, ok := m.messages[id]; ok {
		return msg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) RangeByGroup(_ context.Context, groupID string, filter repository.RangeFilter) ([]*model.Message, error) {
	var result []*model.Message
	for _, msg := range m.messages {
		if msg.GroupID != groupID {
			continue
		}
		if filter.AfterID > 0 && msg.ID >= filter.AfterID {
			continue
		}
		if filter.BeforeID > 0 && msg.ID <= filter.BeforeID {
			continue
		}
		result = append(result, msg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockMessageRepository) ExistsBeyond(_ context.Context, groupID string, boundaryID int64, newer bool) (bool, error) {
	for _, msg := range m.messages {
		if msg.GroupID != groupID {
			continue
		}
		if newer && msg.ID > boundaryID {
			return true, nil
		}
		if !newer && msg.ID < boundaryID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMessageRepository) CountByGroup(_ context.Context, groupID string) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (m *MockMessageRepository) CountAfterID(_ context.Context, groupID string, messageID int64) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.GroupID == groupID && msg.ID > messageID {
			count++
		}
	}
	return count, nil
}

func (m *MockMessageRepository) deleteByGroup(groupID string) {
	for id, msg := range m.messages {
		if msg.GroupID == groupID {
			delete(m.messages, id)
		}
	}
}

type MockGroupRepository struct {
	groups  map[string]*model.Group
	members map[string][]string // ordered, creator first

	// Wired in so Delete cascades like the real repository does.
	messageRepo *MockMessageRepository
	markerRepo  *MockReadMarkerRepository
}

func NewMockGroupRepository(messageRepo *MockMessageRepository, markerRepo *MockReadMarkerRepository) *MockGroupRepository {
	return &MockGroupRepository{
		groups:      make(map[string]*model.Group),
		members:     make(map[string][]string),
		messageRepo: messageRepo,
		markerRepo:  markerRepo,
	}
}

func (m *MockGroupRepository) Create(_ context.Context, group *model.Group, memberIDs []string) error {
	m.groups[group.ID] = group
	m.members[group.ID] = append([]string(nil), memberIDs...)
	return nil
}

func (m *MockGroupRepository) FindByID(_ context.Context, id string) (*model.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGroupRepository) MemberIDs(_ context.Context, groupID string) ([]string, error) {
	return append([]string(nil), m.members[groupID]...), nil
}

func (m *MockGroupRepository) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	for _, id := range m.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockGroupRepository) RemoveMember(_ context.Context, groupID, userID string) error {
	members := m.members[groupID]
	for i, id := range members {
		if id == userID {
			m.members[groupID] = append(members[:i], members[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockGroupRepository) CountMembers(_ context.Context, groupID string) (int64, error) {
	return int64(len(m.members[groupID])), nil
}

func (m *MockGroupRepository) Rename(_ context.Context, groupID, name string) error {
	if g, ok := m.groups[groupID]; ok {
		g.Name = name
	}
	return nil
}

func (m *MockGroupRepository) Delete(_ context.Context, groupID string) error {
	delete(m.groups, groupID)
	delete(m.members, groupID)
	if m.messageRepo != nil {
		m.messageRepo.deleteByGroup(groupID)
	}
	if m.markerRepo != nil {
		m.markerRepo.deleteByGroup(groupID)
	}
	return nil
}

func (m *MockGroupRepository) MemberGroups(_ context.Context, userID string) ([]*model.Group, error) {
	var result []*model.Group
	for groupID, members := range m.members {
		for _, id := range members {
			if id == userID {
				result = append(result, m.groups[groupID])
				break
			}
		}
	}
	return result, nil
}

type markerKey struct {
	userID  string
	groupID string
}

type MockReadMarkerRepository struct {
	markers map[markerKey]*model.ReadMarker
}

func NewMockReadMarkerRepository() *MockReadMarkerRepository {
	return &MockReadMarkerRepository{markers: make(map[markerKey]*model.ReadMarker)}
}

func (m *MockReadMarkerRepository) Replace(_ context.Context, userID, groupID string, messageID int64) error {
	m.markers[markerKey{userID, groupID}] = &model.ReadMarker{
		UserID:    userID,
		GroupID:   groupID,
		MessageID: messageID,
	}
	return nil
}

func (m *MockReadMarkerRepository) Get(_ context.Context, userID, groupID string) (*model.ReadMarker, error) {
	if marker, ok := m.markers[markerKey{userID, groupID}]; ok {
		return marker, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockReadMarkerRepository) deleteByGroup(groupID string) {
	for key := range m.markers {
		if key.groupID == groupID {
			delete(m.markers, key)
		}
	}
}

type MockUserRepository struct {
	users   map[string]*model.User
	byEmail map[string]*model.User
	friends map[string][]*model.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
		friends: make(map[string][]*model.User),
	}
}

func (m *MockUserRepository) Create(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *MockUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) Friends(_ context.Context, userID string) ([]*model.User, error) {
	if _, ok := m.users[userID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.friends[userID], nil
}
