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

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if user.CreatedAt == 0 {
		user.CreatedAt = now
	}
	if user.UpdatedAt == 0 {
		user.UpdatedAt = now
	}
	if user.DisplayName == "" {
		user.DisplayName = models.ShortAddress(user.WalletAddress)
	}

	query := `
		INSERT INTO users (id, wallet_address, display_name, default_currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.WalletAddress,
		user.DisplayName,
		user.DefaultCurrency,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByWallet retrieves a user by their wallet address.
func (s *SQLiteStore) GetUserByWallet(ctx context.Context, address string) (*models.User, error) {
	return s.getUser(ctx, "wallet_address = ?", address)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `
		SELECT id, wallet_address, display_name, default_currency, created_at, updated_at
		FROM users
		WHERE ` + where

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.WalletAddress,
		&user.DisplayName,
		&user.DefaultCurrency,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUsersByWallets retrieves multiple users keyed by wallet address.
// Addresses without a registered user are omitted from the result.
func (s *SQLiteStore) GetUsersByWallets(ctx context.Context, addresses []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User)
	if len(addresses) == 0 {
		return users, nil
	}

	query := `
		SELECT id, wallet_address, display_name, default_currency, created_at, updated_at
		FROM users
		WHERE wallet_address IN (?` + repeatPlaceholder(len(addresses)-1) + `)`

	args := make([]any, len(addresses))
	for i, addr := range addresses {
		args[i] = addr
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by wallets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID,
			&user.WalletAddress,
			&user.DisplayName,
			&user.DefaultCurrency,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.WalletAddress] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UpdateUser updates a user's mutable profile fields.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().Unix()

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, default_currency = ?, updated_at = ? WHERE id = ?`,
		user.DisplayName, user.DefaultCurrency, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}
