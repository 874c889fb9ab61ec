package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chattyapp/chatty/internal/model"
	logger "github.com/chattyapp/chatty/middleware/log"
)

// stubMembers is a membership checker with mutable state, so tests can
// change membership between subscription and delivery.
type stubMembers struct {
	mu      sync.Mutex
	members map[string]map[string]bool
	err     error
}

func newStubMembers() *stubMembers {
	return &stubMembers{members: make(map[string]map[string]bool)}
}

func (s *stubMembers) add(groupID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[groupID] == nil {
		s.members[groupID] = make(map[string]bool)
	}
	s.members[groupID][userID] = true
}

func (s *stubMembers) remove(groupID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[groupID], userID)
}

func (s *stubMembers) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubMembers) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	return s.members[groupID][userID], nil
}

func newTestBroker(t *testing.T, members *stubMembers, bufferSize int) *Broker {
	t.Helper()
	log, err := logger.NewDevelopmentLogger()
	require.NoError(t, err)
	b := NewBroker(members, log, bufferSize)
	go b.Run()
	t.Cleanup(b.Stop)
	return b
}

func messageEvent(groupID, authorID string, id int64) *Event {
	return &Event{
		Topic: TopicMessageCreated,
		Message: &model.Message{
			ID:      id,
			GroupID: groupID,
			UserID:  authorID,
			Text:    "hello",
		},
	}
}

func waitEvent(t *testing.T, sub *Subscriber) *Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "subscriber channel closed unexpectedly")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertNoEvent(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case event := <-sub.Events():
		t.Fatalf("unexpected delivery: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBrokerDeliversToWatchingMember(t *testing.T) {
	members := newStubMembers()
	members.add("g1", "bob")
	b := newTestBroker(t, members, 8)

	sub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(sub)

	b.Publish(messageEvent("g1", "alice", 1))

	event := waitEvent(t, sub)
	assert.Equal(t, int64(1), event.Message.ID)
}

func TestBrokerIgnoresUnwatchedGroup(t *testing.T) {
	members := newStubMembers()
	members.add("g1", "bob")
	members.add("g2", "bob")
	b := newTestBroker(t, members, 8)

	sub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(sub)

	b.Publish(messageEvent("g2", "alice", 1))
	assertNoEvent(t, sub)
}

func TestBrokerSuppressesSelfEcho(t *testing.T) {
	members := newStubMembers()
	members.add("g1", "alice")
	members.add("g1", "bob")
	b := newTestBroker(t, members, 8)

	authorSub := b.Subscribe("alice", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(authorSub)
	otherSub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(otherSub)

	b.Publish(messageEvent("g1", "alice", 1))

	waitEvent(t, otherSub)
	assertNoEvent(t, authorSub)
}

// A registration from before a membership change must not keep leaking
// messages: the filter re-checks membership at delivery time.
func TestBrokerRechecksMembershipPerDelivery(t *testing.T) {
	members := newStubMembers()
	members.add("g1", "bob")
	b := newTestBroker(t, members, 8)

	sub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(sub)

	b.Publish(messageEvent("g1", "alice", 1))
	waitEvent(t, sub)

	members.remove("g1", "bob")
	b.Publish(messageEvent("g1", "alice", 2))
	assertNoEvent(t, sub)
}

// A failing membership check withholds delivery instead of crashing or
// delivering unverified.
func TestBrokerWithholdsOnFilterError(t *testing.T) {
	members := newStubMembers()
	members.add("g1", "bob")
	b := newTestBroker(t, members, 8)

	sub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(sub)

	members.fail(errors.New("store down"))
	b.Publish(messageEvent("g1", "alice", 1))
	assertNoEvent(t, sub)
}

func TestBrokerGroupCreatedFanOut(t *testing.T) {
	members := newStubMembers()
	members.add("g1", "alice")
	members.add("g1", "bob")
	b := newTestBroker(t, members, 8)

	creatorSub := b.Subscribe("alice", []Topic{TopicGroupCreated}, nil)
	defer b.Unsubscribe(creatorSub)
	invitedSub := b.Subscribe("bob", []Topic{TopicGroupCreated}, nil)
	defer b.Unsubscribe(invitedSub)
	outsiderSub := b.Subscribe("carol", []Topic{TopicGroupCreated}, nil)
	defer b.Unsubscribe(outsiderSub)

	b.Publish(&Event{
		Topic: TopicGroupCreated,
		Group: &model.Group{ID: "g1", Name: "book club", MemberIDs: []string{"alice", "bob"}},
	})

	event := waitEvent(t, invitedSub)
	assert.Equal(t, "g1", event.Group.ID)
	assertNoEvent(t, creatorSub)
	assertNoEvent(t, outsiderSub)
}

func TestBrokerDeliveryOrderMatchesPublishOrder(t *testing.T) {
	members := newStubMembers()
	members.add("g1", "bob")
	b := newTestBroker(t, members, 16)

	sub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(sub)

	const n = 10
	for i := 1; i <= n; i++ {
		b.Publish(messageEvent("g1", "alice", int64(i)))
	}

	for i := 1; i <= n; i++ {
		event := waitEvent(t, sub)
		require.Equal(t, int64(i), event.Message.ID, "events must arrive in publish order")
	}
}

func TestBrokerDropsSlowSubscriber(t *testing.T) {
	members := newStubMembers()
	members.add("g1", "bob")
	members.add("g1", "carol")
	b := newTestBroker(t, members, 1)

	slowSub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	healthySub := b.Subscribe("carol", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(healthySub)

	// The slow subscriber drains nothing; its one-slot buffer fills on the
	// first event and the second gets it disconnected.
	b.Publish(messageEvent("g1", "alice", 1))
	b.Publish(messageEvent("g1", "alice", 2))

	waitEvent(t, healthySub)
	waitEvent(t, healthySub)

	waitEvent(t, slowSub) // the buffered first event
	select {
	case _, ok := <-slowSub.Events():
		assert.False(t, ok, "slow subscriber channel must be closed")
	case <-time.After(time.Second):
		t.Fatal("slow subscriber was not disconnected")
	}
}

func TestBrokerStopClosesSubscribers(t *testing.T) {
	members := newStubMembers()
	log, err := logger.NewDevelopmentLogger()
	require.NoError(t, err)
	b := NewBroker(members, log, 8)
	go b.Run()

	sub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	b.Stop()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed on shutdown")
	}

	// Post-shutdown calls must not block.
	b.Publish(messageEvent("g1", "alice", 1))
	b.Unsubscribe(sub)
	late := b.Subscribe("carol", []Topic{TopicMessageCreated}, nil)
	_, ok := <-late.Events()
	assert.False(t, ok)
}

func TestBrokerRedisBridge(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	members := newStubMembers()
	members.add("g1", "bob")

	log, err := logger.NewDevelopmentLogger()
	require.NoError(t, err)
	b := NewBroker(members, log, 8).WithRedis(client)
	go b.Run()
	t.Cleanup(b.Stop)

	sub := b.Subscribe("bob", []Topic{TopicMessageCreated}, []string{"g1"})
	defer b.Unsubscribe(sub)

	// The bridge needs a moment to establish the redis subscription before
	// the first publish, or the event round-trips into nothing.
	require.Eventually(t, func() bool {
		channels, err := client.PubSubChannels(context.Background(), redisChannelName).Result()
		return err == nil && len(channels) > 0
	}, time.Second, 10*time.Millisecond)

	b.Publish(messageEvent("g1", "alice", 7))

	event := waitEvent(t, sub)
	assert.Equal(t, int64(7), event.Message.ID)
	assert.Equal(t, "g1", event.Message.GroupID)
}

func TestEventGroupID(t *testing.T) {
	assert.Equal(t, "g1", messageEvent("g1", "alice", 1).GroupID())
	assert.Equal(t, "g2", (&Event{Topic: TopicGroupCreated, Group: &model.Group{ID: "g2"}}).GroupID())
	assert.Equal(t, "", (&Event{}).GroupID())
}
