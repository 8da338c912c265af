// Package api exposes the settlement engine over a JSON HTTP interface.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"msc-ledger/internal/custody"
	"msc-ledger/internal/domain"
	"msc-ledger/internal/events"
	"msc-ledger/internal/ledger"
	"msc-ledger/internal/observability"
)

// Server routes settlement requests to the engine.
type Server struct {
	engine *ledger.Engine
	hub    *events.Hub
	logger *log.Logger
}

// NewServer creates an API server. The hub is optional; without it the
// /ws endpoint is not registered.
func NewServer(engine *ledger.Engine, hub *events.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stdout, "[api] ", log.LstdFlags)
	}
	return &Server{engine: engine, hub: hub, logger: logger}
}

// Routes returns the HTTP mux with all endpoints registered.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.Handler())
	}

	mux.HandleFunc("POST /v1/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /v1/accounts/balance", s.handleBalance)

	mux.HandleFunc("POST /v1/pool", s.handleInitializePool)
	mux.HandleFunc("GET /v1/pool", s.handleGetPool)
	mux.HandleFunc("POST /v1/pool/rate", s.handleUpdateRate)

	mux.HandleFunc("POST /v1/swaps", s.handleSwap)
	mux.HandleFunc("GET /v1/swaps", s.handleSwapHistory)

	mux.HandleFunc("POST /v1/claims", s.handleCreateClaim)
	mux.HandleFunc("GET /v1/claims", s.handleGetClaims)
	mux.HandleFunc("POST /v1/claims/pay", s.handlePayAndClaim)

	mux.HandleFunc("POST /v1/payments", s.handlePayForService)
	mux.HandleFunc("GET /v1/payments", s.handlePaymentHistory)

	mux.HandleFunc("GET /v1/stats", s.handleUserStats)

	mux.HandleFunc("POST /v1/token", s.handleInitializeToken)
	mux.HandleFunc("GET /v1/token", s.handleGetToken)
	mux.HandleFunc("POST /v1/token/mint", s.handleMint)
	mux.HandleFunc("POST /v1/token/transfer", s.handleTransfer)
	mux.HandleFunc("POST /v1/token/airdrop", s.handleAirdrop)

	return mux
}

// statusFor maps settlement errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrClaimNotFound),
		errors.Is(err, ledger.ErrAccountNotInitialized):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrClaimAlreadyExists),
		errors.Is(err, ledger.ErrPaymentAlreadyProcessed),
		errors.Is(err, ledger.ErrPoolAlreadyInitialized),
		errors.Is(err, ledger.ErrTokenAlreadyInitialized),
		errors.Is(err, custody.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientLiquidity),
		errors.Is(err, custody.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidAuthority),
		errors.Is(err, ledger.ErrInvalidAccountOwner),
		errors.Is(err, custody.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrExchangePoolNotActive),
		errors.Is(err, ledger.ErrSwapAmountTooSmall),
		errors.Is(err, ledger.ErrSwapAmountTooLarge),
		errors.Is(err, ledger.ErrInvalidExchangeRate),
		errors.Is(err, ledger.ErrInvalidFileHash),
		errors.Is(err, ledger.ErrInvalidServiceType),
		errors.Is(err, ledger.ErrPaymentAmountTooLow),
		errors.Is(err, ledger.ErrAirdropLimitExceeded),
		errors.Is(err, ledger.ErrUnsupportedDecimals),
		errors.Is(err, ledger.ErrInvalidRecipient),
		errors.Is(err, ledger.ErrMathOverflow),
		errors.Is(err, ledger.ErrMathUnderflow),
		errors.Is(err, ledger.ErrDivisionByZero),
		errors.Is(err, custody.ErrMintMismatch),
		errors.Is(err, custody.ErrBalanceOverflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("internal error: %v", err)
		s.writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

type createAccountRequest struct {
	Account string `json:"account"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.CreateAccount(r.Context(), req.Account, req.Mint, req.Owner); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"account": req.Account})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "account query parameter is required"})
		return
	}
	balance, err := s.engine.Balance(r.Context(), account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"account": account, "balance": balance})
}

type initializePoolRequest struct {
	Authority string `json:"authority"`
	MscMint   string `json:"msc_mint"`
	UsdcMint  string `json:"usdc_mint"`
	MscVault  string `json:"msc_vault"`
	UsdcVault string `json:"usdc_vault"`
}

func (s *Server) handleInitializePool(w http.ResponseWriter, r *http.Request) {
	var req initializePoolRequest
	if !s.decode(w, r, &req) {
		return
	}
	pool, err := s.engine.InitializePool(r.Context(), req.Authority, req.MscMint, req.UsdcMint, req.MscVault, req.UsdcVault)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, poolResponse(pool))
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.engine.GetPool(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, poolResponse(pool))
}

func poolResponse(p *domain.ExchangePool) map[string]any {
	return map[string]any{
		"address":       p.Address,
		"authority":     p.Authority,
		"msc_mint":      p.MscMint,
		"usdc_mint":     p.UsdcMint,
		"msc_vault":     p.MscVault,
		"usdc_vault":    p.UsdcVault,
		"exchange_rate": p.ExchangeRate,
		"fee_rate":      p.FeeRate,
		"total_volume":  p.TotalVolume,
		"is_active":     p.IsActive,
		"created_at":    p.CreatedAt,
	}
}

type updateRateRequest struct {
	Authority string `json:"authority"`
	Rate      uint64 `json:"rate"`
}

func (s *Server) handleUpdateRate(w http.ResponseWriter, r *http.Request) {
	var req updateRateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.UpdateExchangeRate(r.Context(), req.Authority, req.Rate); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"exchange_rate": req.Rate})
}

type swapRequest struct {
	User            string `json:"user"`
	UserMscAccount  string `json:"user_msc_account"`
	UserUsdcAccount string `json:"user_usdc_account"`
	Amount          uint64 `json:"amount"`
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !s.decode(w, r, &req) {
		return
	}
	record, err := s.engine.Swap(r.Context(), req.User, req.UserMscAccount, req.UserUsdcAccount, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleSwapHistory(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user query parameter is required"})
		return
	}
	records, err := s.engine.GetSwapHistory(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

type createClaimRequest struct {
	Owner    string `json:"owner"`
	FileHash string `json:"file_hash"`
}

func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if !s.decode(w, r, &req) {
		return
	}
	claim, err := s.engine.CreateClaim(r.Context(), req.Owner, req.FileHash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, claim)
}

func (s *Server) handleGetClaims(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner query parameter is required"})
		return
	}

	if fileHash := r.URL.Query().Get("file_hash"); fileHash != "" {
		claim, err := s.engine.GetClaim(r.Context(), owner, fileHash)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, claim)
		return
	}

	claims, err := s.engine.GetClaimsByOwner(r.Context(), owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, claims)
}

type payAndClaimRequest struct {
	Payer        string `json:"payer"`
	PayerAccount string `json:"payer_account"`
	Amount       uint64 `json:"amount"`
	FileHash     string `json:"file_hash"`
}

func (s *Server) handlePayAndClaim(w http.ResponseWriter, r *http.Request) {
	var req payAndClaimRequest
	if !s.decode(w, r, &req) {
		return
	}
	payment, claim, err := s.engine.PayAndCreateClaim(r.Context(), req.Payer, req.PayerAccount, req.Amount, req.FileHash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"payment": payment,
		"claim":   claim,
	})
}

type payForServiceRequest struct {
	Payer        string `json:"payer"`
	PayerAccount string `json:"payer_account"`
	Amount       uint64 `json:"amount"`
	ServiceType  uint8  `json:"service_type"`
}

func (s *Server) handlePayForService(w http.ResponseWriter, r *http.Request) {
	var req payForServiceRequest
	if !s.decode(w, r, &req) {
		return
	}
	record, err := s.engine.PayForService(r.Context(), req.Payer, req.PayerAccount, req.Amount, req.ServiceType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	payer := r.URL.Query().Get("payer")
	if payer == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payer query parameter is required"})
		return
	}
	records, err := s.engine.GetPaymentHistory(r.Context(), payer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user query parameter is required"})
		return
	}
	stats, err := s.engine.GetUserStats(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type initializeTokenRequest struct {
	Authority        string `json:"authority"`
	Mint             string `json:"mint"`
	AuthorityAccount string `json:"authority_account"`
	Decimals         uint8  `json:"decimals"`
}

func (s *Server) handleInitializeToken(w http.ResponseWriter, r *http.Request) {
	var req initializeTokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	config, err := s.engine.InitializeToken(r.Context(), req.Authority, req.Mint, req.AuthorityAccount, req.Decimals)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, config)
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	config, err := s.engine.GetTokenConfig(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, config)
}

type mintRequest struct {
	Authority string `json:"authority"`
	ToAccount string `json:"to_account"`
	Amount    uint64 `json:"amount"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.Mint(r.Context(), req.Authority, req.ToAccount, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "minted"})
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.Transfer(r.Context(), req.From, req.To, req.Owner, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

type airdropRequest struct {
	Authority     string                    `json:"authority"`
	SourceAccount string                    `json:"source_account"`
	Recipients    []domain.AirdropRecipient `json:"recipients"`
}

func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	var req airdropRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.engine.BatchAirdrop(r.Context(), req.Authority, req.SourceAccount, req.Recipients); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "airdropped",
		"recipients": len(req.Recipients),
	})
}
