package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	sol "github.com/gagliardetto/solana-go"
)

const (
	DefaultRPCURL        = "https://api.devnet.solana.com"
	DefaultProgramID     = "TRBZyQHB3m68FGeVsqTK39Wm4xejadjVhP5MAZaKWDM"
	DefaultCollection    = "5ebsp5RChCGK7ssRZMVMufgVZhd2kFbNaotcZ5UvytN2"
	DefaultMplCoreProgID = "CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d"
	DefaultWalletPath    = "dev-wallet.json"
)

// Config holds environment-driven configuration.
type Config struct {
	Port string

	RPCURL               string
	Commitment           string
	RPCRequestsPerSecond int
	ConfirmTimeout       time.Duration
	ConfirmPollInterval  time.Duration

	ProgramID        string
	CollectionID     string
	MplCoreProgramID string
	WalletPath       string

	MongoURI       string
	MongoDB        string
	RateLimitRPM   int
	CacheTTL       time.Duration
	KeyCacheTTL    time.Duration
	BalanceTimeout time.Duration
	MaxConcurrency int
	AdminToken     string
}

// Programs are the on-chain addresses the prerequisite flow talks to.
type Programs struct {
	Program    sol.PublicKey
	Collection sol.PublicKey
	MplCore    sol.PublicKey
}

// DefaultPrograms returns the devnet deployment addresses.
func DefaultPrograms() Programs {
	return Programs{
		Program:    sol.MustPublicKeyFromBase58(DefaultProgramID),
		Collection: sol.MustPublicKeyFromBase58(DefaultCollection),
		MplCore:    sol.MustPublicKeyFromBase58(DefaultMplCoreProgID),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load loads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:                 getenv("PORT", "8080"),
		RPCURL:               getenv("SOLANA_RPC_URL", DefaultRPCURL),
		Commitment:           getenv("SOL_COMMITMENT", "confirmed"),
		RPCRequestsPerSecond: getint("RPC_RPS", 5),
		ConfirmTimeout:       getdur("CONFIRM_TIMEOUT", 60*time.Second),
		ConfirmPollInterval:  getdur("CONFIRM_POLL_INTERVAL", 500*time.Millisecond),
		ProgramID:            getenv("PREREQ_PROGRAM_ID", DefaultProgramID),
		CollectionID:         getenv("PREREQ_COLLECTION", DefaultCollection),
		MplCoreProgramID:     getenv("MPL_CORE_PROGRAM_ID", DefaultMplCoreProgID),
		WalletPath:           getenv("WALLET_PATH", DefaultWalletPath),
		MongoURI:             getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:              getenv("MONGO_DB", "prereqkit"),
		RateLimitRPM:         getint("RATE_LIMIT_RPM", 10),
		CacheTTL:             getdur("CACHE_TTL", 10*time.Second),
		KeyCacheTTL:          getdur("KEY_CACHE_TTL", 60*time.Second),
		BalanceTimeout:       getdur("BALANCE_TIMEOUT", 3*time.Second),
		MaxConcurrency:       getint("MAX_CONCURRENCY", 16),
		AdminToken:           getenv("ADMIN_TOKEN", ""),
	}
}

// Programs parses the configured program addresses.
func (c Config) Programs() (Programs, error) {
	var p Programs
	fields := []struct {
		name string
		raw  string
		dst  *sol.PublicKey
	}{
		{"PREREQ_PROGRAM_ID", c.ProgramID, &p.Program},
		{"PREREQ_COLLECTION", c.CollectionID, &p.Collection},
		{"MPL_CORE_PROGRAM_ID", c.MplCoreProgramID, &p.MplCore},
	}
	for _, f := range fields {
		pk, err := sol.PublicKeyFromBase58(f.raw)
		if err != nil {
			return Programs{}, fmt.Errorf("%s: invalid address %q: %w", f.name, f.raw, err)
		}
		*f.dst = pk
	}
	return p, nil
}
