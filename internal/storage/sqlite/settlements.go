package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitbase/backend/internal/models"
	"github.com/splitbase/backend/internal/storage"
)

const settlementColumns = "id, transaction_id, expense_id, payer_id, receiver_id, amount, currency, payment_method, transaction_hash, status, created_at, completed_at"

// UpsertSettlement records or updates the settlement for the
// (TransactionID, PayerID) pair. At most one row exists per pair. A completed
// row is never downgraded: re-applying the same hash is a no-op, a different
// hash returns storage.ErrSettlementConflict.
func (s *SQLiteStore) UpsertSettlement(ctx context.Context, settlement *models.Settlement) (*models.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing := &models.Settlement{}
	err = tx.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE transaction_id = ? AND payer_id = ?",
		settlement.TransactionID, settlement.PayerID,
	).Scan(&existing.ID, &existing.TransactionID, &existing.ExpenseID,
		&existing.PayerID, &existing.ReceiverID, &existing.Amount,
		&existing.Currency, &existing.PaymentMethod, &existing.TransactionHash,
		&existing.Status, &existing.CreatedAt, &existing.CompletedAt)

	if settlement.TransactionHash != "" {
		reused, checkErr := hashInUse(ctx, tx, settlement.PayerID, settlement.TransactionHash, settlement.TransactionID)
		if checkErr != nil {
			return nil, checkErr
		}
		if reused {
			return nil, storage.ErrHashReused
		}
	}

	switch {
	case err == sql.ErrNoRows:
		inserted, err := s.insertSettlement(ctx, tx, settlement)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return inserted, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	if existing.Completed() {
		if settlement.TransactionHash != "" && settlement.TransactionHash != existing.TransactionHash {
			return nil, storage.ErrSettlementConflict
		}
		// Completed rows are terminal; nothing to update.
		return existing, nil
	}

	merged := mergeSettlement(existing, settlement)
	_, err = tx.ExecContext(ctx,
		`UPDATE settlements
		 SET receiver_id = ?, amount = ?, currency = ?, payment_method = ?,
		     transaction_hash = ?, status = ?, completed_at = ?
		 WHERE id = ?`,
		merged.ReceiverID, merged.Amount, merged.Currency, merged.PaymentMethod,
		merged.TransactionHash, merged.Status, merged.CompletedAt, merged.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return merged, nil
}

func (s *SQLiteStore) insertSettlement(ctx context.Context, tx *sql.Tx, settlement *models.Settlement) (*models.Settlement, error) {
	created := *settlement
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	if created.CreatedAt == 0 {
		created.CreatedAt = time.Now().Unix()
	}
	// Status follows the presence of a transaction hash.
	if created.TransactionHash != "" {
		created.Status = models.SettlementCompleted
		if created.CompletedAt == 0 {
			created.CompletedAt = time.Now().Unix()
		}
	} else {
		created.Status = models.SettlementPending
		created.CompletedAt = 0
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO settlements (id, transaction_id, expense_id, payer_id, receiver_id, amount, currency, payment_method, transaction_hash, status, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.TransactionID, created.ExpenseID, created.PayerID,
		created.ReceiverID, created.Amount, created.Currency, created.PaymentMethod,
		created.TransactionHash, created.Status, created.CreatedAt, created.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert settlement: %w", err)
	}

	return &created, nil
}

// hashInUse reports whether another settlement by the same payer already
// carries the transaction hash. One on-chain transfer proves one obligation;
// reusing its hash against a second transaction is rejected. Callers must run
// inside tx.
func hashInUse(ctx context.Context, tx *sql.Tx, payerID, hash, transactionID string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM settlements WHERE payer_id = ? AND transaction_hash = ? AND transaction_id != ?",
		payerID, hash, transactionID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check hash reuse: %w", err)
	}
	return n > 0, nil
}

// mergeSettlement folds an update into a pending settlement. Fields left empty
// on the update keep their stored values.
func mergeSettlement(existing, update *models.Settlement) *models.Settlement {
	merged := *existing
	if update.ReceiverID != "" {
		merged.ReceiverID = update.ReceiverID
	}
	if update.Amount != 0 {
		merged.Amount = update.Amount
	}
	if update.Currency != "" {
		merged.Currency = update.Currency
	}
	if update.PaymentMethod != "" {
		merged.PaymentMethod = update.PaymentMethod
	}
	if update.TransactionHash != "" {
		merged.TransactionHash = update.TransactionHash
		merged.Status = models.SettlementCompleted
		merged.CompletedAt = time.Now().Unix()
	}
	return &merged
}

// ListUserSettlements retrieves settlements where the wallet address is payer
// or receiver, most recent first.
func (s *SQLiteStore) ListUserSettlements(ctx context.Context, address string) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE payer_id = ? OR receiver_id = ? ORDER BY created_at DESC",
		address, address,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user settlements: %w", err)
	}
	defer rows.Close()

	return scanSettlements(rows)
}

func scanSettlements(rows *sql.Rows) ([]models.Settlement, error) {
	var settlements []models.Settlement
	for rows.Next() {
		var settlement models.Settlement
		if err := rows.Scan(&settlement.ID, &settlement.TransactionID, &settlement.ExpenseID,
			&settlement.PayerID, &settlement.ReceiverID, &settlement.Amount,
			&settlement.Currency, &settlement.PaymentMethod, &settlement.TransactionHash,
			&settlement.Status, &settlement.CreatedAt, &settlement.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
