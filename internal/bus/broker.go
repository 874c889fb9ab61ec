package bus

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chattyapp/chatty/internal/mq"
	logger "github.com/chattyapp/chatty/middleware/log"
)

const (
	redisChannelName = "chatty:events"

	// Deadline for the per-delivery membership re-check.
	filterTimeout = 2 * time.Second
)

// MembershipChecker re-verifies authorization at delivery time, so a
// subscriber who left a group stops receiving even if the registration
// predates the change.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// Subscriber is one long-lived client registration. Events arrive on a
// buffered channel; a subscriber that stops draining is disconnected
// rather than allowed to stall the broker.
type Subscriber struct {
	userID string
	topics map[Topic]struct{}
	groups map[string]struct{}
	send   chan *Event
}

// Events is the delivery channel. Closed by the broker on disconnect or
// shutdown.
func (s *Subscriber) Events() <-chan *Event {
	return s.send
}

func (s *Subscriber) UserID() string {
	return s.userID
}

// Broker owns the subscriber registry and fans published events out to
// the subscribers whose filters accept them. All registry state is
// confined to the Run goroutine; external callers talk to it over
// channels. Lifecycle is explicit: Run until Stop.
type Broker struct {
	members MembershipChecker
	log     *logger.Logger

	register   chan *Subscriber
	unregister chan *Subscriber
	publish    chan *Event
	done       chan struct{}

	subscribers map[*Subscriber]struct{}
	bufferSize  int

	// Optional cross-instance bridge: events are published to a redis
	// channel and every instance (this one included) dispatches what it
	// receives from the subscription.
	redis *redis.Client

	// Optional Kafka export of every published event.
	producer *mq.Producer
}

func NewBroker(members MembershipChecker, log *logger.Logger, bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Broker{
		members:     members,
		log:         log,
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		publish:     make(chan *Event, 256),
		done:        make(chan struct{}),
		subscribers: make(map[*Subscriber]struct{}),
		bufferSize:  bufferSize,
	}
}

// WithRedis enables the cross-instance redis bridge.
func (b *Broker) WithRedis(client *redis.Client) *Broker {
	b.redis = client
	return b
}

// WithProducer enables the Kafka event export.
func (b *Broker) WithProducer(producer *mq.Producer) *Broker {
	b.producer = producer
	return b
}

// Run dispatches until Stop is called. Dispatch is single-threaded, which
// is what gives each subscriber publish-order (FIFO) delivery per topic.
func (b *Broker) Run() {
	if b.redis != nil {
		go b.subscribeToRedis()
	}

	for {
		select {
		case sub := <-b.register:
			b.subscribers[sub] = struct{}{}

		case sub := <-b.unregister:
			if _, ok := b.subscribers[sub]; ok {
				delete(b.subscribers, sub)
				close(sub.send)
			}

		case event := <-b.publish:
			b.dispatch(event)

		case <-b.done:
			for sub := range b.subscribers {
				close(sub.send)
			}
			b.subscribers = make(map[*Subscriber]struct{})
			return
		}
	}
}

// Stop shuts the broker down and closes every subscriber channel.
func (b *Broker) Stop() {
	close(b.done)
}

// Subscribe registers interest. groupIDs only matters for the message
// topic; membership is still re-checked per delivery.
func (b *Broker) Subscribe(userID string, topics []Topic, groupIDs []string) *Subscriber {
	sub := &Subscriber{
		userID: userID,
		topics: make(map[Topic]struct{}, len(topics)),
		groups: make(map[string]struct{}, len(groupIDs)),
		send:   make(chan *Event, b.bufferSize),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}
	for _, id := range groupIDs {
		sub.groups[id] = struct{}{}
	}

	select {
	case b.register <- sub:
	case <-b.done:
		close(sub.send)
	}
	return sub
}

func (b *Broker) Unsubscribe(sub *Subscriber) {
	select {
	case b.unregister <- sub:
	case <-b.done:
	}
}

// Publish hands an event to the fan-out path and returns without waiting
// for deliveries. With the redis bridge enabled the event makes one round
// trip through redis so every instance sees it exactly once.
func (b *Broker) Publish(event *Event) {
	if b.producer != nil {
		go func() {
			if err := b.producer.Send(event.GroupID(), event); err != nil {
				b.log.Warn("kafka export failed", zap.Error(err))
			}
		}()
	}

	if b.redis != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			b.log.Error("marshal event", zap.Error(err))
			return
		}
		if err := b.redis.Publish(context.Background(), redisChannelName, payload).Err(); err != nil {
			b.log.Warn("redis publish failed, falling back to local dispatch", zap.Error(err))
		} else {
			return
		}
	}

	select {
	case b.publish <- event:
	case <-b.done:
	}
}

func (b *Broker) subscribeToRedis() {
	ctx := context.Background()
	pubsub := b.redis.Subscribe(ctx, redisChannelName)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn("drop undecodable bridge event", zap.Error(err))
				continue
			}
			select {
			case b.publish <- &event:
			case <-b.done:
				return
			}
		case <-b.done:
			return
		}
	}
}

func (b *Broker) dispatch(event *Event) {
	var dropped []*Subscriber

	for sub := range b.subscribers {
		if _, ok := sub.topics[event.Topic]; !ok {
			continue
		}
		if !b.accepts(sub, event) {
			continue
		}
		select {
		case sub.send <- event:
		default:
			// Buffer full: disconnect rather than stall the others.
			dropped = append(dropped, sub)
		}
	}

	for _, sub := range dropped {
		b.log.Warn("dropping slow subscriber", zap.String("user_id", sub.userID))
		delete(b.subscribers, sub)
		close(sub.send)
	}
}

// accepts evaluates the subscription filter for one event. Any evaluation
// failure means "do not deliver", never a crash.
func (b *Broker) accepts(sub *Subscriber, event *Event) bool {
	switch event.Topic {
	case TopicMessageCreated:
		msg := event.Message
		if msg == nil {
			return false
		}
		if _, watched := sub.groups[msg.GroupID]; !watched {
			return false
		}
		// Self-echo suppression: the author already holds the mutation
		// result.
		if msg.UserID == sub.userID {
			return false
		}
		return b.stillMember(msg.GroupID, sub.userID)

	case TopicGroupCreated:
		group := event.Group
		if group == nil || len(group.MemberIDs) == 0 {
			return false
		}
		// The creator (index 0) already holds the mutation result.
		if group.MemberIDs[0] == sub.userID {
			return false
		}
		for _, id := range group.MemberIDs {
			if id == sub.userID {
				return b.stillMember(group.ID, sub.userID)
			}
		}
		return false
	}
	return false
}

func (b *Broker) stillMember(groupID, userID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), filterTimeout)
	defer cancel()

	ok, err := b.members.IsMember(ctx, groupID, userID)
	if err != nil {
		b.log.Warn("membership re-check failed, withholding delivery",
			zap.String("group_id", groupID),
			zap.String("user_id", userID),
			zap.Error(err))
		return false
	}
	return ok
}
