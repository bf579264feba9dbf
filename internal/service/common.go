// Package service exposes the REST API over gin: auth, groups, expenses,
// settlements, and the chat assistant, all under /api.
package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"splittab/internal/middleware"
	"splittab/internal/models"
	"splittab/internal/storage"
)

// groupView shapes a group for API responses, adding the flat member ID
// list clients use for quick membership checks.
type groupView struct {
	*models.Group
	MemberIDs []string `json:"member_ids"`
}

func newGroupView(g *models.Group) groupView {
	return groupView{Group: g, MemberIDs: g.MemberIDs()}
}

func groupViews(groups []*models.Group) []groupView {
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, newGroupView(g))
	}
	return views
}

// groupForMember loads a group and checks that the requester belongs to
// it, writing the 404/403/500 response itself when that fails. The
// forbidden message varies by surface to match the client wording.
func groupForMember(c *gin.Context, store storage.Store, groupID, forbiddenMsg string) (*models.Group, bool) {
	group, err := store.GetGroup(c.Request.Context(), groupID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return nil, false
	}
	if err != nil {
		slog.Error("GetGroup failed", "error", err, "group_id", groupID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	if !group.HasMember(middleware.UserID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": forbiddenMsg})
		return nil, false
	}
	return group, true
}

func internalError(c *gin.Context, op string, err error) {
	slog.Error(op+" failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
