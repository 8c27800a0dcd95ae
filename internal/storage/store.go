// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitbase/backend/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrSettlementConflict is returned when a completed settlement would be
// overwritten with a different transaction hash. Completed settlements are
// terminal evidence; the first recorded hash wins.
var ErrSettlementConflict = errors.New("settlement already completed with a different transaction hash")

// ErrHashReused is returned when a transaction hash already backs another
// settlement by the same payer. One on-chain transfer proves one obligation.
var ErrHashReused = errors.New("transaction hash already used by another settlement")

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	// CreateUser persists a new user. The ID and timestamps are populated by
	// the store when unset.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByWallet retrieves a user by wallet address.
	// Returns ErrNotFound if absent.
	GetUserByWallet(ctx context.Context, address string) (*models.User, error)

	// GetUsersByWallets retrieves multiple users keyed by wallet address.
	// Addresses without a registered user are omitted from the result.
	GetUsersByWallets(ctx context.Context, addresses []string) (map[string]*models.User, error)

	// UpdateUser updates a user's mutable profile fields.
	UpdateUser(ctx context.Context, user *models.User) error

	// CreateGroup persists a new group with its member list.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group, its members and its expenses by ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser retrieves every group the wallet address belongs to.
	ListGroupsForUser(ctx context.Context, address string) ([]*models.Group, error)

	// AddExpense appends an expense to its group, bumps the group's cached
	// total, and creates the flat transaction projection — all in one storage
	// transaction. Returns the created projection.
	AddExpense(ctx context.Context, expense *models.Expense) (*models.Transaction, error)

	// ListGroupExpenses retrieves a group's expenses with their splits.
	ListGroupExpenses(ctx context.Context, groupID string) ([]models.Expense, error)

	// GetTransaction retrieves a transaction with splits and settlements.
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)

	// ListUserTransactions retrieves every transaction the wallet address
	// touches, as payer or split participant, settlements included.
	ListUserTransactions(ctx context.Context, address string) ([]models.Transaction, error)

	// UpsertSettlement records or updates the settlement for the
	// (TransactionID, PayerID) pair. At most one row exists per pair; a
	// completed row is never downgraded and its hash never replaced
	// (ErrSettlementConflict). Re-applying the same hash is a no-op. A hash
	// already backing one of the payer's other settlements is rejected
	// (ErrHashReused).
	UpsertSettlement(ctx context.Context, settlement *models.Settlement) (*models.Settlement, error)

	// ListUserSettlements retrieves settlements where the wallet address is
	// payer or receiver.
	ListUserSettlements(ctx context.Context, address string) ([]models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
