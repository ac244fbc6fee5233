package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/example/prereqkit/internal/auth"
	"github.com/example/prereqkit/internal/cache"
	"github.com/example/prereqkit/internal/config"
	"github.com/example/prereqkit/internal/handlers"
	apihttp "github.com/example/prereqkit/internal/http"
	"github.com/example/prereqkit/internal/prereq"
	"github.com/example/prereqkit/internal/rate"
	"github.com/example/prereqkit/internal/receipts"
	"github.com/example/prereqkit/internal/solana"
)

// deps are the backends the HTTP surface needs. Any may be nil; the
// matching routes are then left unmounted.
type deps struct {
	Keys     auth.APIKeyStore
	Creator  auth.APIKeyCreator
	Receipts receipts.Lister
	Balances solana.BalanceFetcher
}

// newHandler builds the router for cfg. The returned stop func releases
// the background goroutines.
func newHandler(cfg config.Config, d deps, log *slog.Logger) (http.Handler, func(), error) {
	programs, err := cfg.Programs()
	if err != nil {
		return nil, nil, err
	}

	routes := apihttp.Routes{
		Derive:  handlers.NewDeriveHandler(),
		Convert: handlers.NewConvertHandler(),
		Preview: handlers.NewPreviewHandler(&prereq.Service{Programs: programs, Log: log}),
	}

	balances := cache.New[handlers.Balance](cfg.CacheTTL)
	if d.Balances != nil {
		routes.Balance = handlers.NewBalanceHandler(handlers.BalanceDeps{
			Cache:          balances,
			Fetcher:        d.Balances,
			Timeout:        cfg.BalanceTimeout,
			MaxConcurrency: cfg.MaxConcurrency,
			Log:            log,
		})
	}
	if d.Receipts != nil {
		routes.Receipts = handlers.NewReceiptsHandler(d.Receipts)
	}
	if d.Creator != nil && cfg.AdminToken != "" {
		routes.Admin = handlers.NewAdminHandler(d.Creator, cfg.AdminToken)
	}

	lm := rate.NewLimiterMap(cfg.RateLimitRPM, cfg.RateLimitRPM, 5*time.Minute)
	done := make(chan struct{})
	go purgeEvery(balances, cfg.CacheTTL, done)

	stop := func() {
		lm.Stop()
		close(done)
	}
	return apihttp.NewRouter(routes, lm, d.Keys, log), stop, nil
}

func purgeEvery(c *cache.Cache[handlers.Balance], every time.Duration, done <-chan struct{}) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			c.Purge()
		}
	}
}
