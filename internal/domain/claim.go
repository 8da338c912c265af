package domain

// FileHashLength is the required fingerprint length (hex-encoded SHA-256).
const FileHashLength = 64

// OwnershipClaim binds an owner to a content fingerprint.
// Corresponds to ownership_claims table in PostgreSQL.
// At most one active claim exists per (owner, file_hash) pair; the
// deterministic record address enforces this without scanning.
type OwnershipClaim struct {
	Address       string `json:"address"`        // PRIMARY KEY, derived from (owner, file_hash)
	Owner         string `json:"owner"`          // claiming account
	FileHash      string `json:"file_hash"`      // 64-character lowercase-insensitive hex fingerprint
	Timestamp     int64  `json:"timestamp"`      // settlement time, Unix seconds
	TransactionID string `json:"transaction_id"` // opaque reference for reconciliation
	IsActive      bool   `json:"is_active"`
}

// IsValidFileHash reports whether hash is exactly 64 ASCII hex digits.
func IsValidFileHash(hash string) bool {
	if len(hash) != FileHashLength {
		return false
	}
	for i := 0; i < len(hash); i++ {
		c := hash[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
