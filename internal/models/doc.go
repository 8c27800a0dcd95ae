// Package models defines the core domain models for splitbase.
//
// # Models
//
//   - User: a wallet-identified account
//   - Group: a named set of users sharing expenses
//   - Expense: a recorded cost owned by a group, paid by one member and split
//     among members
//   - SplitShare: one member's owed portion of an expense
//   - Transaction: the flat, per-user-queryable projection of an expense
//   - Settlement: a record of one participant paying their share, backed by an
//     on-chain transfer
//
// # Design Principles
//
// 1. **Wallet identity**: users are keyed by wallet address; group membership
// lists hold wallet addresses so a group can be created before every member
// has signed in.
// 2. **Amend-by-append**: expenses are immutable once created. Corrections are
// new expenses; the only mutable part of a transaction is its settlement list.
// 3. **Avoid circular references**: relationships use ID strings, not pointers.
// 4. **Derived state is recomputed**: balances are never persisted; they are
// rebuilt from transactions and completed settlements on demand.
package models
