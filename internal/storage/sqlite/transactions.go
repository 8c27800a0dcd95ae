package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/splitbase/backend/internal/models"
	"github.com/splitbase/backend/internal/storage"
)

const transactionColumns = "id, group_id, expense_id, description, amount, currency, paid_by, date, created_at"

// GetTransaction retrieves a transaction with its splits and settlements.
func (s *SQLiteStore) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	transaction := &models.Transaction{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?",
		transactionID,
	).Scan(&transaction.ID, &transaction.GroupID, &transaction.ExpenseID,
		&transaction.Description, &transaction.Amount, &transaction.Currency,
		&transaction.PaidBy, &transaction.Date, &transaction.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if err := s.loadTransactionDetails(ctx, transaction); err != nil {
		return nil, err
	}

	return transaction, nil
}

// ListUserTransactions retrieves every transaction the wallet address touches,
// as payer or split participant, most recent first.
func (s *SQLiteStore) ListUserTransactions(ctx context.Context, address string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT t.id, t.group_id, t.expense_id, t.description, t.amount, t.currency, t.paid_by, t.date, t.created_at
		 FROM transactions t
		 LEFT JOIN transaction_splits ts ON ts.transaction_id = t.id
		 WHERE t.paid_by = ? OR ts.user_id = ?
		 ORDER BY t.date DESC, t.created_at DESC`,
		address, address,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var transaction models.Transaction
		if err := rows.Scan(&transaction.ID, &transaction.GroupID, &transaction.ExpenseID,
			&transaction.Description, &transaction.Amount, &transaction.Currency,
			&transaction.PaidBy, &transaction.Date, &transaction.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	for i := range transactions {
		if err := s.loadTransactionDetails(ctx, &transactions[i]); err != nil {
			return nil, err
		}
	}

	return transactions, nil
}

func (s *SQLiteStore) loadTransactionDetails(ctx context.Context, transaction *models.Transaction) error {
	splits, err := s.transactionSplits(ctx, transaction.ID)
	if err != nil {
		return err
	}
	transaction.SplitBetween = splits

	settlements, err := s.transactionSettlements(ctx, transaction.ID)
	if err != nil {
		return err
	}
	transaction.Settlements = settlements

	return nil
}

func (s *SQLiteStore) transactionSplits(ctx context.Context, transactionID string) ([]models.SplitShare, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount FROM transaction_splits WHERE transaction_id = ? ORDER BY user_id",
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction splits: %w", err)
	}
	defer rows.Close()

	var splits []models.SplitShare
	for rows.Next() {
		var share models.SplitShare
		if err := rows.Scan(&share.UserID, &share.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction split: %w", err)
		}
		splits = append(splits, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction splits: %w", err)
	}

	return splits, nil
}

func (s *SQLiteStore) transactionSettlements(ctx context.Context, transactionID string) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE transaction_id = ? ORDER BY created_at",
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction settlements: %w", err)
	}
	defer rows.Close()

	return scanSettlements(rows)
}
