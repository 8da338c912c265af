package domain

// UserStats holds per-user running settlement counters.
// Corresponds to user_stats table in PostgreSQL.
// Upserted by every settlement that touches the user; counters only grow.
type UserStats struct {
	Address       string `json:"address"`        // PRIMARY KEY, derived from the user account
	User          string `json:"user"`           // owning account
	TotalClaims   uint32 `json:"total_claims"`   // claims created
	TotalPayments uint64 `json:"total_payments"` // cumulative MSC paid
	TotalSwaps    uint32 `json:"total_swaps"`    // swaps settled
	LastActivity  int64  `json:"last_activity"`  // latest settlement time, Unix seconds
}
