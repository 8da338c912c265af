package domain

// PaymentStatus is the lifecycle state of a payment record.
type PaymentStatus uint8

const (
	PaymentPending   PaymentStatus = 0
	PaymentCompleted PaymentStatus = 1
	PaymentRefunded  PaymentStatus = 2
)

// IsValid checks if the status is a known value.
func (s PaymentStatus) IsValid() bool {
	return s <= PaymentRefunded
}

// String returns the string representation of PaymentStatus.
func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "pending"
	case PaymentCompleted:
		return "completed"
	case PaymentRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Service tiers and their prices (MSC units, 6 decimals).
const (
	ServiceBasicClaim   uint8 = 0
	ServicePremiumClaim uint8 = 1
	ServiceBulkClaim    uint8 = 2

	BasicClaimPrice   uint64 = 10_000_000  // 10 MSC
	PremiumClaimPrice uint64 = 50_000_000  // 50 MSC
	BulkClaimPrice    uint64 = 100_000_000 // 100 MSC

	// ClaimPrice is the floor for the atomic pay-and-claim flow.
	ClaimPrice = BasicClaimPrice
)

// IsValidServiceType checks if the service type is a known tier.
func IsValidServiceType(serviceType uint8) bool {
	return serviceType <= ServiceBulkClaim
}

// ServicePrice returns the required payment for a service tier.
// Returns false for unknown tiers.
func ServicePrice(serviceType uint8) (uint64, bool) {
	switch serviceType {
	case ServiceBasicClaim:
		return BasicClaimPrice, true
	case ServicePremiumClaim:
		return PremiumClaimPrice, true
	case ServiceBulkClaim:
		return BulkClaimPrice, true
	default:
		return 0, false
	}
}

// ServiceName returns a human-readable tier name.
func ServiceName(serviceType uint8) string {
	switch serviceType {
	case ServiceBasicClaim:
		return "Basic Claim"
	case ServicePremiumClaim:
		return "Premium Claim"
	case ServiceBulkClaim:
		return "Bulk Claim"
	default:
		return "Unknown Service"
	}
}

// PaymentRecord is one settled service or claim payment.
// Corresponds to payment_records table in PostgreSQL.
type PaymentRecord struct {
	Address       string        `json:"address"`        // PRIMARY KEY, deterministic record address
	Payer         string        `json:"payer"`          // paying account
	Amount        uint64        `json:"amount"`         // MSC units charged
	ServiceType   uint8         `json:"service_type"`   // tier the payment was made for
	Timestamp     int64         `json:"timestamp"`      // settlement time, Unix seconds
	TransactionID string        `json:"transaction_id"` // opaque reference for reconciliation
	Status        PaymentStatus `json:"status"`         // pending | completed | refunded
	IsUsed        bool          `json:"is_used"`        // flips once when consumed by claim creation
}
