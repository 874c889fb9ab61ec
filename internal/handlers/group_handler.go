package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chattyapp/chatty/internal/middlewares"
	"github.com/chattyapp/chatty/internal/service"
)

type GroupHandler struct {
	GroupService service.IGroupService
}

func NewGroupHandler(groupService service.IGroupService) *GroupHandler {
	return &GroupHandler{GroupService: groupService}
}

type createGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	MemberIDs []string `json:"member_ids"`
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	group, err := h.GroupService.CreateGroup(c.Request.Context(), caller, req.Name, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)

	group, err := h.GroupService.GetGroup(c.Request.Context(), caller, c.Param("group_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)

	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	group, err := h.GroupService.UpdateGroup(c.Request.Context(), caller, c.Param("group_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)

	groupID, err := h.GroupService.LeaveGroup(c.Request.Context(), caller, c.Param("group_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": groupID})
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)

	group, err := h.GroupService.DeleteGroup(c.Request.Context(), caller, c.Param("group_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) UnreadCount(c *gin.Context) {
	caller := middlewares.CurrentIdentity(c)

	count, err := h.GroupService.UnreadCount(c.Request.Context(), caller, c.Param("group_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}
