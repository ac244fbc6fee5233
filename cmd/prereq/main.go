package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/prereqkit/internal/config"
	"github.com/example/prereqkit/internal/prereq"
	"github.com/example/prereqkit/internal/receipts"
	"github.com/example/prereqkit/internal/solana"
	"github.com/example/prereqkit/internal/wallet"
	sol "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ExitCode int

const (
	exitCodeSuccess ExitCode = 0
	exitCodeError   ExitCode = 1
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(int(code))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) ExitCode {
	a := &app{cfg: config.Load(), stderr: stderr}
	defer a.close()
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		a.logger().Error("command failed", "error", err)
		return exitCodeError
	}
	return exitCodeSuccess
}

// app carries the resolved configuration shared by every subcommand.
type app struct {
	cfg     config.Config
	verbose bool
	stderr  io.Writer
	log     *slog.Logger
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prereq",
		Short:         "Wallet, PDA and prerequisite-submission tooling for Solana devnet.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.RPCURL, "rpc-url", a.cfg.RPCURL, "Solana JSON-RPC endpoint")
	pf.StringVarP(&a.cfg.WalletPath, "wallet", "w", a.cfg.WalletPath, "path to a keygen JSON wallet file")
	pf.StringVar(&a.cfg.Commitment, "commitment", a.cfg.Commitment, "commitment level for reads and confirmation (processed, confirmed, finalized)")
	pf.StringVar(&a.cfg.ProgramID, "program", a.cfg.ProgramID, "prerequisite program id")
	pf.StringVar(&a.cfg.CollectionID, "collection", a.cfg.CollectionID, "prerequisite collection address")
	pf.StringVar(&a.cfg.MplCoreProgramID, "mpl-core", a.cfg.MplCoreProgramID, "MPL core program id")
	pf.StringVar(&a.cfg.MongoURI, "mongo-uri", a.cfg.MongoURI, "MongoDB for transaction receipts; empty disables them")
	pf.DurationVar(&a.cfg.ConfirmTimeout, "confirm-timeout", a.cfg.ConfirmTimeout, "how long to wait for a transaction to confirm")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "set debug logging level")

	root.AddCommand(
		a.keygenCmd(),
		a.airdropCmd(),
		a.balanceCmd(),
		a.transferCmd(),
		a.sweepCmd(),
		a.toBase58Cmd(),
		a.toBytesCmd(),
		a.deriveCmd(),
		a.previewCmd(),
		a.initializeCmd(),
		a.submitCmd(),
		a.enrollCmd(),
	)
	return root
}

func (a *app) logger() *slog.Logger {
	if a.log == nil {
		a.log = newLogger(a.stderr, a.verbose)
	}
	return a.log
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func (a *app) client() *solana.Client {
	a.logger().Debug("using rpc", "url", a.cfg.RPCURL, "commitment", a.cfg.Commitment)
	return solana.NewClient(a.cfg.RPCURL, solana.Options{
		Commitment:        a.cfg.Commitment,
		RequestsPerSecond: a.cfg.RPCRequestsPerSecond,
		ConfirmTimeout:    a.cfg.ConfirmTimeout,
		PollInterval:      a.cfg.ConfirmPollInterval,
	})
}

func (a *app) identity() (sol.PrivateKey, error) {
	key, err := wallet.Load(a.cfg.WalletPath)
	if err != nil {
		return nil, err
	}
	a.logger().Debug("loaded wallet", "path", a.cfg.WalletPath, "pubkey", key.PublicKey())
	return key, nil
}

// service builds the prerequisite use case. Receipts are opened only when
// chain is set.
func (a *app) service(ctx context.Context, chain prereq.Submitter) (*prereq.Service, error) {
	programs, err := a.cfg.Programs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wallet.ErrMalformedInput, err)
	}
	svc := &prereq.Service{Chain: chain, Programs: programs, Log: a.logger()}
	if chain != nil {
		svc.Receipts = a.recorder(ctx)
	}
	return svc, nil
}

// openReceipts connects the receipt store. Replaced in tests.
var openReceipts = openMongoReceipts

func openMongoReceipts(ctx context.Context, cfg config.Config) (receipts.Recorder, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		return nil, nil, err
	}
	disconnect := func() { _ = client.Disconnect(context.Background()) }
	if err := client.Ping(ctx, nil); err != nil {
		disconnect()
		return nil, nil, err
	}
	store, err := receipts.NewMongoStore(ctx, client, cfg.MongoDB)
	if err != nil {
		disconnect()
		return nil, nil, err
	}
	return store, disconnect, nil
}

// recorder returns the receipt store, or nil when it is disabled or
// unreachable. Receipts never block a submission.
func (a *app) recorder(ctx context.Context) receipts.Recorder {
	if a.cfg.MongoURI == "" {
		return nil
	}
	rec, closeFn, err := openReceipts(ctx, a.cfg)
	if err != nil {
		a.logger().Warn("receipts disabled", "error", err)
		return nil
	}
	if closeFn != nil {
		a.closers = append(a.closers, closeFn)
	}
	return rec
}

// explorerURL links sig on the Solana explorer for the cluster rpcURL points at.
func explorerURL(sig sol.Signature, rpcURL string) string {
	base := "https://explorer.solana.com/tx/" + sig.String()
	switch {
	case strings.Contains(rpcURL, "devnet"):
		return base + "?cluster=devnet"
	case strings.Contains(rpcURL, "testnet"):
		return base + "?cluster=testnet"
	case strings.Contains(rpcURL, "mainnet"):
		return base
	default:
		return base + "?cluster=custom&customUrl=" + url.QueryEscape(rpcURL)
	}
}
