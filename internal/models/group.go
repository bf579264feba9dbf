package models

import (
	"time"

	"github.com/google/uuid"
)

// Group represents a set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string `json:"name"`

	// Description is an optional longer description.
	Description string `json:"description,omitempty"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`

	// Members are the users in this group, in the order they joined.
	Members []*User `json:"members"`
}

// NewGroup creates a group with a fresh ID and creation timestamp.
func NewGroup(name, description string) *Group {
	return &Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().Unix(),
	}
}

// MemberIDs returns the IDs of all members in join order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// HasMember reports whether the user belongs to this group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// Member returns the member with the given ID, or nil.
func (g *Group) Member(userID string) *User {
	for _, m := range g.Members {
		if m.ID == userID {
			return m
		}
	}
	return nil
}
