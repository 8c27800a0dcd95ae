package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitbase/backend/internal/models"
)

// AddExpense appends an expense to its group, bumps the group's cached total,
// and creates the flat transaction projection in a single storage transaction.
func (s *SQLiteStore) AddExpense(ctx context.Context, expense *models.Expense) (*models.Transaction, error) {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	if expense.Date == 0 {
		expense.Date = now
	}
	if expense.Category == "" {
		expense.Category = models.DefaultCategory
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, currency, paid_by, category, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount,
		expense.Currency, expense.PaidBy, expense.Category, expense.Date, expense.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, share := range expense.SplitBetween {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expense.ID, share.UserID, share.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE groups SET total_expenses = total_expenses + ? WHERE id = ?",
		expense.Amount, expense.GroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update group total: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check group update: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("group %s does not exist", expense.GroupID)
	}

	projection := &models.Transaction{
		ID:           uuid.New().String(),
		GroupID:      expense.GroupID,
		ExpenseID:    expense.ID,
		Description:  expense.Description,
		Amount:       expense.Amount,
		Currency:     expense.Currency,
		PaidBy:       expense.PaidBy,
		SplitBetween: expense.SplitBetween,
		Date:         expense.Date,
		CreatedAt:    expense.CreatedAt,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, group_id, expense_id, description, amount, currency, paid_by, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projection.ID, projection.GroupID, projection.ExpenseID, projection.Description,
		projection.Amount, projection.Currency, projection.PaidBy, projection.Date, projection.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	for _, share := range projection.SplitBetween {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO transaction_splits (transaction_id, user_id, amount) VALUES (?, ?, ?)",
			projection.ID, share.UserID, share.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return projection, nil
}

// ListGroupExpenses retrieves a group's expenses with their splits, most
// recent first.
func (s *SQLiteStore) ListGroupExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, currency, paid_by, category, date, created_at
		 FROM expenses WHERE group_id = ? ORDER BY date DESC, created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var expense models.Expense
		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.Description,
			&expense.Amount, &expense.Currency, &expense.PaidBy, &expense.Category,
			&expense.Date, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		splits, err := s.expenseSplits(ctx, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].SplitBetween = splits
	}

	return expenses, nil
}

func (s *SQLiteStore) expenseSplits(ctx context.Context, expenseID string) ([]models.SplitShare, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount FROM expense_splits WHERE expense_id = ? ORDER BY user_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	var splits []models.SplitShare
	for rows.Next() {
		var share models.SplitShare
		if err := rows.Scan(&share.UserID, &share.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		splits = append(splits, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}

	return splits, nil
}
