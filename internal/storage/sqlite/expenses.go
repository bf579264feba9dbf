package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"splittab/internal/models"
	"splittab/internal/storage"
)

// CreateExpense persists an expense along with its participant and share rows.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, amount, description, category, split_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.PayerID, expense.Amount,
		expense.Description, nullable(expense.Category), expense.SplitType, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertExpenseDetails(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including participants and shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var category sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, amount, description, category, split_type, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &expense.Amount,
		&expense.Description, &category, &expense.SplitType, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.Category = category.String

	if err := s.loadExpenseDetails(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpensesByGroup retrieves a group's expenses, newest first, narrowed
// by the filter.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string, filter storage.ExpenseFilter) ([]*models.Expense, error) {
	query := `SELECT id, group_id, payer_id, amount, description, category, split_type, created_at
		 FROM expenses WHERE group_id = ?`
	args := []interface{}{groupID}

	// SQLite LIKE is case-insensitive for ASCII, matching the search intent.
	if filter.Search != "" {
		query += " AND description LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var category sql.NullString
		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &expense.Amount,
			&expense.Description, &category, &expense.SplitType, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.Category = category.String
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if err := s.loadExpenseDetails(ctx, expense); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

// UpdateExpense replaces an expense's mutable fields and rewrites its
// participant and share rows.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET amount = ?, description = ?, category = ?, split_type = ?
		 WHERE id = ?`,
		expense.Amount, expense.Description, nullable(expense.Category), expense.SplitType, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_participants WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear expense participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear expense shares: %w", err)
	}

	if err := insertExpenseDetails(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteExpense removes an expense. Participants and shares cascade away.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	return nil
}

// insertExpenseDetails writes the participant and share rows for an expense.
func insertExpenseDetails(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for _, userID := range expense.ParticipantIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, user_id) VALUES (?, ?)",
			expense.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense participant: %w", err)
		}
	}

	for userID, amount := range expense.Shares {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expense.ID, userID, amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}

	return nil
}

// loadExpenseDetails fills in the participant IDs and custom shares.
func (s *SQLiteStore) loadExpenseDetails(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM expense_participants WHERE expense_id = ? ORDER BY rowid",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan expense participant: %w", err)
		}
		expense.ParticipantIDs = append(expense.ParticipantIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense participants: %w", err)
	}

	shareRows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount FROM expense_shares WHERE expense_id = ?",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var userID string
		var amount float64
		if err := shareRows.Scan(&userID, &amount); err != nil {
			return fmt.Errorf("failed to scan expense share: %w", err)
		}
		if expense.Shares == nil {
			expense.Shares = make(map[string]float64)
		}
		expense.Shares[userID] = amount
	}
	if err := shareRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense shares: %w", err)
	}

	return nil
}
