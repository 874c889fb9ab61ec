package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chattyapp/chatty/internal/bus"
	"github.com/chattyapp/chatty/internal/repository"
	"github.com/chattyapp/chatty/internal/service"
	logger "github.com/chattyapp/chatty/middleware/log"
)

// Server upgrades authenticated requests into live subscriptions.
type Server struct {
	broker    *bus.Broker
	groupRepo repository.IGroupRepository
	log       *logger.Logger
}

func NewServer(broker *bus.Broker, groupRepo repository.IGroupRepository, log *logger.Logger) *Server {
	return &Server{
		broker:    broker,
		groupRepo: groupRepo,
		log:       log,
	}
}

// ServeMessages streams messageCreated events for the requested groups.
// Subscribing to any group the caller is not a member of fails the whole
// request with Unauthorized before the upgrade.
func (s *Server) ServeMessages(c *gin.Context, caller *service.Identity, groupIDs []string) {
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthorized.Error()})
		return
	}
	if len(groupIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_ids is required"})
		return
	}
	for _, groupID := range groupIDs {
		isMember, err := s.groupRepo.IsMember(c.Request.Context(), groupID, caller.ID)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrUnavailable.Error()})
			return
		}
		if !isMember {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthorized.Error()})
			return
		}
	}

	s.upgrade(c, caller, []bus.Topic{bus.TopicMessageCreated}, groupIDs)
}

// ServeGroups streams groupCreated events for groups the caller is added
// to by someone else.
func (s *Server) ServeGroups(c *gin.Context, caller *service.Identity) {
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthorized.Error()})
		return
	}

	s.upgrade(c, caller, []bus.Topic{bus.TopicGroupCreated}, nil)
}

func (s *Server) upgrade(c *gin.Context, caller *service.Identity, topics []bus.Topic, groupIDs []string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := s.broker.Subscribe(caller.ID, topics, groupIDs)
	newClient(conn, sub, s.broker, s.log).run()
}
