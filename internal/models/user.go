package models

// User represents a wallet-identified account.
//
// A user is created on their first successful wallet authentication and is
// never hard-deleted; profile updates mutate DisplayName and DefaultCurrency
// only.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// WalletAddress is the user's primary identity: a 0x-prefixed, lowercased
	// EVM address, unique across users.
	WalletAddress string `json:"walletAddress"`

	// DisplayName is the human-readable name shown in ledgers. Defaults to the
	// short form of the wallet address until the user sets one.
	DisplayName string `json:"displayName"`

	// DefaultCurrency is the currency code balances and insights are converted
	// into for this user. Must be one of the supported currency codes.
	DefaultCurrency string `json:"defaultCurrency"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last profile update.
	UpdatedAt int64 `json:"updatedAt"`
}

// ShortAddress returns the abbreviated wallet address used for default
// display names, e.g. "0x1234…abcd".
func ShortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
