package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msc-ledger/internal/custody"
	"msc-ledger/internal/domain"
	"msc-ledger/internal/ledger"
	"msc-ledger/internal/storage/memory"
)

const testHash = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

type testEnv struct {
	srv  *httptest.Server
	bank *custody.MemoryBank
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	bank := custody.NewMemoryBank()

	accounts := []struct{ acct, mint, owner string }{
		{"msc-vault", "msc", "admin"},
		{"usdc-vault", "usdc", "admin"},
		{"alice-msc", "msc", "alice"},
		{"alice-usdc", "usdc", "alice"},
		{"treasury", "msc", "treasury-owner"},
		{"service", "msc", "service-owner"},
	}
	for _, a := range accounts {
		require.NoError(t, bank.CreateAccount(ctx, a.acct, a.mint, a.owner))
	}

	engine, err := ledger.NewEngine(ledger.Options{
		Store:          memory.NewLedger(),
		Bank:           bank,
		Treasury:       "treasury",
		ServiceAccount: "service",
		Logger:         log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(engine, nil, log.New(io.Discard, "", 0)).Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, bank: bank}
}

func (e *testEnv) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (e *testEnv) fund(t *testing.T, acct string, amount uint64) {
	t.Helper()
	require.NoError(t, e.bank.MintTo(context.Background(), acct, amount))
}

func TestAccountEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/accounts", map[string]string{
		"account": "carol-msc", "mint": "msc", "owner": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.post(t, "/v1/accounts", map[string]string{
		"account": "carol-msc", "mint": "msc", "owner": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	env.fund(t, "carol-msc", 42)
	resp = env.get(t, "/v1/accounts/balance?account=carol-msc")
	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(42), body["balance"])

	resp = env.get(t, "/v1/accounts/balance?account=nobody")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/health")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPoolLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/v1/pool")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	initReq := map[string]string{
		"authority":  "admin",
		"msc_mint":   "msc",
		"usdc_mint":  "usdc",
		"msc_vault":  "msc-vault",
		"usdc_vault": "usdc-vault",
	}
	resp = env.post(t, "/v1/pool", initReq)
	var pool map[string]any
	decodeBody(t, resp, &pool)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(domain.DefaultExchangeRate), pool["exchange_rate"])
	assert.Equal(t, true, pool["is_active"])

	resp = env.post(t, "/v1/pool", initReq)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.post(t, "/v1/pool/rate", map[string]any{"authority": "intruder", "rate": 2_000_000})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.post(t, "/v1/pool/rate", map[string]any{"authority": "admin", "rate": 2_000_000})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSwapEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/v1/pool", map[string]string{
		"authority": "admin", "msc_mint": "msc", "usdc_mint": "usdc",
		"msc_vault": "msc-vault", "usdc_vault": "usdc-vault",
	}).Body.Close()
	env.fund(t, "alice-msc", 5_000_000)
	env.fund(t, "usdc-vault", 10_000_000)

	resp := env.post(t, "/v1/swaps", map[string]any{
		"user": "alice", "user_msc_account": "alice-msc",
		"user_usdc_account": "alice-usdc", "amount": 1_000_000,
	})
	var record domain.SwapRecord
	decodeBody(t, resp, &record)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, uint64(990_000), record.UsdcAmount)
	assert.Equal(t, uint64(10_000), record.FeeAmount)

	resp = env.post(t, "/v1/swaps", map[string]any{
		"user": "alice", "user_msc_account": "alice-msc",
		"user_usdc_account": "alice-usdc", "amount": 100,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.get(t, "/v1/swaps?user=alice")
	var history []domain.SwapRecord
	decodeBody(t, resp, &history)
	assert.Len(t, history, 1)
}

func TestClaimEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/claims", map[string]string{"owner": "alice", "file_hash": "nope"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post(t, "/v1/claims", map[string]string{"owner": "alice", "file_hash": testHash})
	var claim domain.OwnershipClaim
	decodeBody(t, resp, &claim)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, claim.IsActive)

	resp = env.post(t, "/v1/claims", map[string]string{"owner": "alice", "file_hash": testHash})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.get(t, fmt.Sprintf("/v1/claims?owner=alice&file_hash=%s", testHash))
	var got domain.OwnershipClaim
	decodeBody(t, resp, &got)
	assert.Equal(t, claim.Address, got.Address)

	resp = env.get(t, fmt.Sprintf("/v1/claims?owner=bob&file_hash=%s", testHash))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPayAndClaimEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, "alice-msc", 50_000_000)

	resp := env.post(t, "/v1/claims/pay", map[string]any{
		"payer": "alice", "payer_account": "alice-msc",
		"amount": domain.ClaimPrice, "file_hash": testHash,
	})
	var result struct {
		Payment domain.PaymentRecord  `json:"payment"`
		Claim   domain.OwnershipClaim `json:"claim"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, result.Payment.IsUsed)
	assert.True(t, result.Claim.IsActive)

	// Replay is rejected with a conflict.
	resp = env.post(t, "/v1/claims/pay", map[string]any{
		"payer": "alice", "payer_account": "alice-msc",
		"amount": domain.ClaimPrice, "file_hash": testHash,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Underfunded payer.
	resp = env.post(t, "/v1/claims/pay", map[string]any{
		"payer": "alice", "payer_account": "alice-msc",
		"amount": 100_000_000, "file_hash": strings.Repeat("77", 32),
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPaymentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, "alice-msc", 200_000_000)

	resp := env.post(t, "/v1/payments", map[string]any{
		"payer": "alice", "payer_account": "alice-msc",
		"amount": domain.BasicClaimPrice, "service_type": 7,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post(t, "/v1/payments", map[string]any{
		"payer": "alice", "payer_account": "alice-msc",
		"amount": domain.PremiumClaimPrice, "service_type": domain.ServicePremiumClaim,
	})
	var record domain.PaymentRecord
	decodeBody(t, resp, &record)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.PaymentCompleted, record.Status)

	resp = env.get(t, "/v1/payments?payer=alice")
	var history []domain.PaymentRecord
	decodeBody(t, resp, &history)
	assert.Len(t, history, 1)

	resp = env.get(t, "/v1/stats?user=alice")
	var stats domain.UserStats
	decodeBody(t, resp, &stats)
	assert.Equal(t, domain.PremiumClaimPrice, stats.TotalPayments)
}

func TestTokenEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/v1/token", map[string]any{
		"authority": "admin", "mint": "msc",
		"authority_account": "msc-vault", "decimals": 9,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post(t, "/v1/token", map[string]any{
		"authority": "admin", "mint": "msc",
		"authority_account": "msc-vault", "decimals": domain.TokenDecimals,
	})
	var config domain.TokenConfig
	decodeBody(t, resp, &config)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.TokenTotalSupply, config.TotalSupply)

	resp = env.post(t, "/v1/token/airdrop", map[string]any{
		"authority": "admin", "source_account": "msc-vault",
		"recipients": []map[string]any{
			{"account": "alice-msc", "amount": 1_000_000},
		},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.post(t, "/v1/token/transfer", map[string]any{
		"from": "alice-msc", "to": "msc-vault", "owner": "intruder", "amount": 1,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Post(env.srv.URL+"/v1/swaps", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
