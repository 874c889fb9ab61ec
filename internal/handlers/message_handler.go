package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chattyapp/chatty/internal/middlewares"
	"github.com/chattyapp/chatty/internal/service"
)

type MessageHandler struct {
	MessageService service.IMessageService
}

func NewMessageHandler(messageService service.IMessageService) *MessageHandler {
	return &MessageHandler{MessageService: messageService}
}

type createMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)

	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	message, err := h.MessageService.CreateMessage(c.Request.Context(), caller, c.Param("group_id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ListMessages pages the group log: ?first=N&after=cursor or
// ?last=N&before=cursor.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)

	opts := service.ListOptions{
		After:  c.Query("after"),
		Before: c.Query("before"),
	}
	var err error
	if opts.First, err = intQuery(c, "first"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first must be an integer"})
		return
	}
	if opts.Last, err = intQuery(c, "last"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "last must be an integer"})
		return
	}

	connection, err := h.MessageService.ListMessages(c.Request.Context(), caller, c.Param("group_id"), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, connection)
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
