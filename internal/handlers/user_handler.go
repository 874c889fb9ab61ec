package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chattyapp/chatty/internal/middlewares"
	"github.com/chattyapp/chatty/internal/service"
)

type UserHandler struct {
	UserService  service.IUserService
	GroupService service.IGroupService
}

func NewUserHandler(userService service.IUserService, groupService service.IGroupService) *UserHandler {
	return &UserHandler{
		UserService:  userService,
		GroupService: groupService,
	}
}

// GetProfile resolves the caller's own record with friends and groups.
func (h *UserHandler) GetProfile(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)
	if caller == nil {
		respondError(c, service.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	user, err := h.UserService.GetUser(ctx, caller, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	friends, err := h.UserService.Friends(ctx, caller, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	groups, err := h.UserService.Groups(ctx, caller, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"friends":  friends,
		"groups":   groups,
	})
}

// GetGroups lists the caller's groups with their unread counts.
func (h *UserHandler) GetGroups(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)
	if caller == nil {
		respondError(c, service.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	groups, err := h.UserService.Groups(ctx, caller, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	type groupWithUnread struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		UnreadCount int64  `json:"unread_count"`
	}
	out := make([]groupWithUnread, 0, len(groups))
	for _, g := range groups {
		unread, err := h.GroupService.UnreadCount(ctx, caller, g.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		out = append(out, groupWithUnread{ID: g.ID, Name: g.Name, UnreadCount: unread})
	}

	c.JSON(http.StatusOK, out)
}
