package recordkey

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestDerive_Deterministic(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		parts [][]byte
	}{
		{name: "singleton pool", tag: PoolTag},
		{name: "claim", tag: ClaimTag, parts: [][]byte{[]byte("OwnerABC"), []byte("aabbcc")}},
		{name: "payment", tag: PaymentTag, parts: [][]byte{[]byte("PayerXYZ"), u64le(42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.tag, tt.parts...)
			got2 := Derive(tt.tag, tt.parts...)
			if got != got2 {
				t.Errorf("Derive() not deterministic: %s != %s", got, got2)
			}

			raw, err := base58.Decode(got)
			if err != nil {
				t.Fatalf("Derive() produced invalid base58: %v", err)
			}
			if len(raw) != 32 {
				t.Errorf("Derive() decoded length = %d, want 32", len(raw))
			}
		})
	}
}

func TestDerive_DifferentInputs(t *testing.T) {
	base := ClaimAddress("owner", "hash")

	if base == ClaimAddress("other_owner", "hash") {
		t.Error("different owner should produce different address")
	}
	if base == ClaimAddress("owner", "other_hash") {
		t.Error("different hash should produce different address")
	}
	if base == PaymentAddress("owner", 0) {
		t.Error("different tag should produce different address")
	}
}

func TestSingletonAddresses(t *testing.T) {
	if PoolAddress() != PoolAddress() {
		t.Error("pool address must be stable")
	}
	if PoolAddress() == TokenConfigAddress() {
		t.Error("pool and token config singletons must not collide")
	}
}

func TestSwapAddress_VolumeDiscriminates(t *testing.T) {
	a := SwapAddress("user", 1700000000, 0)
	b := SwapAddress("user", 1700000000, 1_000_000)
	if a == b {
		t.Error("different prior volume should produce different swap address")
	}
}

func TestClaimPaymentAddress_DistinctFromClaim(t *testing.T) {
	// The paid flow creates both records from the same (user, hash) pair;
	// their tags must keep the slots apart.
	if ClaimAddress("user", "hash") == ClaimPaymentAddress("user", "hash") {
		t.Error("claim and claim-payment slots must not collide")
	}
}
