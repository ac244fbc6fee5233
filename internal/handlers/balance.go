package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/example/prereqkit/internal/cache"
	"github.com/example/prereqkit/internal/solana"
	"github.com/example/prereqkit/internal/types"
	"github.com/example/prereqkit/pkg/jsonutil"
	sol "github.com/gagliardetto/solana-go"
)

const maxWallets = 100

// Balance is what the balance cache stores per wallet.
type Balance struct {
	Lamports  uint64
	FetchedAt time.Time
}

// BalanceDeps bundles dependencies needed by the handler.
type BalanceDeps struct {
	Cache          *cache.Cache[Balance]
	Fetcher        solana.BalanceFetcher
	Timeout        time.Duration
	MaxConcurrency int
	Log            *slog.Logger
}

type BalanceHandler struct{ Deps BalanceDeps }

func NewBalanceHandler(deps BalanceDeps) *BalanceHandler {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.MaxConcurrency <= 0 {
		deps.MaxConcurrency = 1
	}
	return &BalanceHandler{Deps: deps}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func (h *BalanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.GetBalanceRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	if len(req.Wallets) == 0 {
		jsonutil.Error(w, http.StatusBadRequest, "wallets required")
		return
	}
	if len(req.Wallets) > maxWallets {
		jsonutil.Error(w, http.StatusBadRequest, "too many wallets")
		return
	}

	resp := types.GetBalanceResponse{Balances: []types.BalanceEntry{}, Errors: []types.ErrorEntry{}}
	valid := make(map[string]sol.PublicKey)
	for _, ws := range dedupe(req.Wallets) {
		pk, err := sol.PublicKeyFromBase58(ws)
		if err != nil {
			resp.Errors = append(resp.Errors, types.ErrorEntry{Wallet: ws, Error: "invalid public key"})
			continue
		}
		valid[ws] = pk
	}

	sem := make(chan struct{}, h.Deps.MaxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for ws, pk := range valid {
		ws, pk := ws, pk
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			ctx, cancel := context.WithTimeout(r.Context(), h.Deps.Timeout)
			defer cancel()
			val, source, err := h.Deps.Cache.GetOrFetch(ctx, ws, func(ctx context.Context) (Balance, error) {
				lamports, latency, err := h.Deps.Fetcher.GetBalance(ctx, pk)
				if err != nil {
					return Balance{}, err
				}
				h.Deps.Log.Debug("rpc fetch", "wallet", ws, "latency_ms", latency.Milliseconds())
				return Balance{Lamports: lamports, FetchedAt: time.Now().UTC()}, nil
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Errors = append(resp.Errors, types.ErrorEntry{Wallet: ws, Error: err.Error()})
				return
			}
			entry := types.NewBalanceEntry(ws, val.Lamports, string(source), val.FetchedAt)
			entry.Sol = math.Round(entry.Sol*1e9) / 1e9
			resp.Balances = append(resp.Balances, entry)
		}()
	}
	wg.Wait()

	sort.Slice(resp.Balances, func(i, j int) bool { return resp.Balances[i].Wallet < resp.Balances[j].Wallet })
	sort.Slice(resp.Errors, func(i, j int) bool { return resp.Errors[i].Wallet < resp.Errors[j].Wallet })
	jsonutil.JSON(w, http.StatusOK, resp)
}
