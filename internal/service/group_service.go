package service

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"splittab/internal/middleware"
	"splittab/internal/models"
	"splittab/internal/storage"
)

// GroupService handles group CRUD and membership changes.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

type createGroupRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"member_ids"`
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type addMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ListGroups returns the groups the requester belongs to.
func (s *GroupService) ListGroups(c *gin.Context) {
	groups, err := s.store.ListGroupsByMember(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		internalError(c, "ListGroups", err)
		return
	}
	c.JSON(http.StatusOK, groupViews(groups))
}

// CreateGroup creates a new group. The creator always joins first;
// member_ids add further known users, silently skipping unknown IDs.
func (s *GroupService) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	creator, err := s.store.GetUserByID(ctx, middleware.UserID(c))
	if err != nil {
		internalError(c, "CreateGroup", err)
		return
	}
	if creator == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	members := []*models.User{creator}
	if len(req.MemberIDs) > 0 {
		others, err := s.store.GetUsersByIDs(ctx, req.MemberIDs)
		if err != nil {
			internalError(c, "CreateGroup", err)
			return
		}
		seen := map[string]bool{creator.ID: true}
		for _, id := range req.MemberIDs {
			u := others[id]
			if u == nil || seen[id] {
				continue
			}
			seen[id] = true
			members = append(members, u)
		}
	}

	group := models.NewGroup(req.Name, req.Description)
	group.Members = members
	if err := s.store.CreateGroup(ctx, group); err != nil {
		internalError(c, "CreateGroup", err)
		return
	}

	slog.Info("Group created", "group_id", group.ID, "name", group.Name, "members", len(members))
	c.JSON(http.StatusOK, newGroupView(group))
}

// GetGroup returns one group the requester belongs to.
func (s *GroupService) GetGroup(c *gin.Context) {
	group, ok := groupForMember(c, s.store, c.Param("id"), "Not a member")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newGroupView(group))
}

// UpdateGroup changes the name and/or description. Absent fields are
// left untouched.
func (s *GroupService) UpdateGroup(c *gin.Context) {
	group, ok := groupForMember(c, s.store, c.Param("id"), "Not a member")
	if !ok {
		return
	}

	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}

	if err := s.store.UpdateGroup(c.Request.Context(), group); err != nil {
		internalError(c, "UpdateGroup", err)
		return
	}
	c.JSON(http.StatusOK, newGroupView(group))
}

// DeleteGroup removes the group and all its expenses and payments.
func (s *GroupService) DeleteGroup(c *gin.Context) {
	group, ok := groupForMember(c, s.store, c.Param("id"), "Not a member")
	if !ok {
		return
	}

	if err := s.store.DeleteGroup(c.Request.Context(), group.ID); err != nil {
		internalError(c, "DeleteGroup", err)
		return
	}

	slog.Info("Group deleted", "group_id", group.ID)
	c.Status(http.StatusNoContent)
}

// AddMember adds a registered user to the group by email.
func (s *GroupService) AddMember(c *gin.Context) {
	group, ok := groupForMember(c, s.store, c.Param("id"), "Not a member")
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		internalError(c, "AddMember", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No user found with that email"})
		return
	}
	if group.HasMember(user.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already in group"})
		return
	}

	if err := s.store.AddGroupMember(ctx, group.ID, user.ID); err != nil {
		internalError(c, "AddMember", err)
		return
	}

	group.Members = append(group.Members, user)
	c.JSON(http.StatusOK, newGroupView(group))
}

// RemoveMember removes another member from the group.
func (s *GroupService) RemoveMember(c *gin.Context) {
	group, ok := groupForMember(c, s.store, c.Param("id"), "Not a member")
	if !ok {
		return
	}

	target := group.Member(c.Param("userID"))
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not in this group"})
		return
	}
	if target.ID == middleware.UserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot remove yourself"})
		return
	}

	if err := s.store.RemoveGroupMember(c.Request.Context(), group.ID, target.ID); err != nil {
		internalError(c, "RemoveMember", err)
		return
	}

	remaining := make([]*models.User, 0, len(group.Members)-1)
	for _, m := range group.Members {
		if m.ID != target.ID {
			remaining = append(remaining, m)
		}
	}
	group.Members = remaining
	c.JSON(http.StatusOK, newGroupView(group))
}
