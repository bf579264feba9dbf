// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"splittab/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ExpenseFilter narrows an expense listing. The zero value matches
// everything.
type ExpenseFilter struct {
	// Search matches against the description, case-insensitively.
	Search string

	// Category restricts to a single category.
	Category string

	// Limit caps the number of rows returned. Zero means no limit.
	Limit int

	// Offset skips that many rows, for pagination.
	Offset int
}

// Store defines the interface for persistent storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email.
	// Returns nil without an error if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns nil without an error if no such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs retrieves multiple users keyed by ID in one query.
	// IDs that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateGroup persists a new group along with its membership rows.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members loaded, in join order.
	// Returns an error wrapping ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember retrieves all groups the user belongs to.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// ListGroups retrieves every group. Used by background jobs.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// UpdateGroup updates a group's name and description.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group and everything hanging off it.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddGroupMember adds a user to a group.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// RemoveGroupMember removes a user from a group.
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	// CreateExpense persists an expense with its participants and shares.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID.
	// Returns an error wrapping ErrNotFound if the expense does not exist.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup retrieves a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string, filter ExpenseFilter) ([]*models.Expense, error)

	// UpdateExpense replaces an expense's mutable fields, participants
	// and shares.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense.
	DeleteExpense(ctx context.Context, expenseID string) error

	// CreatePayment persists a settlement payment.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// ListPaymentsByGroup retrieves a group's payments, newest first.
	ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error)

	// Close releases any resources held by the store.
	Close() error
}
