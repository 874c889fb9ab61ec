package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chattyapp/chatty/internal/model"
)

func newUserFixture(t *testing.T) (*MockUserRepository, *MockGroupRepository, IUserService) {
	t.Helper()
	users := NewMockUserRepository()
	groups := NewMockGroupRepository(nil, nil)
	return users, groups, NewUserService(users, groups)
}

func TestGetUserSelfOnly(t *testing.T) {
	users, _, svc := newUserFixture(t)
	require.NoError(t, users.Create(context.Background(), &model.User{ID: "alice", Email: "alice@example.com"}))

	user, err := svc.GetUser(context.Background(), alice, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = svc.GetUser(context.Background(), bob, "alice")
	assert.ErrorIs(t, err, ErrUnauthorized, "other users' records are not readable")

	_, err = svc.GetUser(context.Background(), nil, "alice")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserFriends(t *testing.T) {
	users, _, svc := newUserFixture(t)
	require.NoError(t, users.Create(context.Background(), &model.User{ID: "alice"}))
	users.friends["alice"] = []*model.User{{ID: "bob"}}

	friends, err := svc.Friends(context.Background(), alice, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].ID)

	_, err = svc.Friends(context.Background(), bob, "alice")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserGroups(t *testing.T) {
	users, groups, svc := newUserFixture(t)
	require.NoError(t, users.Create(context.Background(), &model.User{ID: "alice"}))
	require.NoError(t, groups.Create(context.Background(), &model.Group{ID: "g1", Name: "book club"}, []string{"alice", "bob"}))
	require.NoError(t, groups.Create(context.Background(), &model.Group{ID: "g2", Name: "chess"}, []string{"bob"}))

	memberOf, err := svc.Groups(context.Background(), alice, "alice")
	require.NoError(t, err)
	require.Len(t, memberOf, 1)
	assert.Equal(t, "g1", memberOf[0].ID)
}
