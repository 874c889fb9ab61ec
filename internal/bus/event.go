package bus

import (
	"github.com/chattyapp/chatty/internal/model"
)

type Topic string

const (
	TopicMessageCreated Topic = "message_created"
	TopicGroupCreated   Topic = "group_created"
)

// Event carries one published mutation. Exactly one of Message or Group is
// set, matching the topic. Group events carry the full member list with
// the creator at index 0. Events are JSON-encoded as-is when they cross
// the redis bridge or the Kafka export.
type Event struct {
	Topic   Topic          `json:"topic"`
	Message *model.Message `json:"message,omitempty"`
	Group   *model.Group   `json:"group,omitempty"`
}

// GroupID returns the group the event belongs to, for partitioning.
func (e *Event) GroupID() string {
	switch {
	case e.Message != nil:
		return e.Message.GroupID
	case e.Group != nil:
		return e.Group.ID
	}
	return ""
}
