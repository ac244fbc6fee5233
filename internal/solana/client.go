package solana

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/example/prereqkit/internal/metrics"
	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

var (
	// ErrNetwork wraps every failed round-trip to the RPC node.
	ErrNetwork = errors.New("network failure")
	// ErrTransactionFailed is returned when a submitted transaction lands with an error.
	ErrTransactionFailed = fmt.Errorf("%w: transaction failed", ErrNetwork)
	// ErrConfirmTimeout is returned when a transaction is not confirmed in time.
	ErrConfirmTimeout = fmt.Errorf("%w: confirmation timed out", ErrNetwork)
	// ErrFeeUnavailable is returned when the node cannot price a message, usually
	// because its blockhash has expired.
	ErrFeeUnavailable = fmt.Errorf("%w: fee unavailable", ErrNetwork)

	ErrNoSigners = errors.New("at least one signer is required")
)

const (
	defaultConfirmTimeout = 60 * time.Second
	defaultPollInterval   = 500 * time.Millisecond
)

// RPC is the subset of *rpc.Client the client relies on.
type RPC interface {
	GetBalance(ctx context.Context, account sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetFeeForMessage(ctx context.Context, message string, commitment rpc.CommitmentType) (*rpc.GetFeeForMessageResult, error)
	RequestAirdrop(ctx context.Context, account sol.PublicKey, lamports uint64, commitment rpc.CommitmentType) (sol.Signature, error)
	SendTransactionWithOpts(ctx context.Context, tx *sol.Transaction, opts rpc.TransactionOpts) (sol.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...sol.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// BalanceFetcher abstracts fetching balances for a wallet.
type BalanceFetcher interface {
	GetBalance(ctx context.Context, pubkey sol.PublicKey) (lamports uint64, latency time.Duration, err error)
}

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	Commitment        string
	RequestsPerSecond int
	ConfirmTimeout    time.Duration
	PollInterval      time.Duration
}

type Client struct {
	rpc            RPC
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// NewClient dials rpcURL lazily. When RequestsPerSecond is set, outgoing calls
// are throttled client side.
func NewClient(rpcURL string, opts Options) *Client {
	var c *rpc.Client
	if opts.RequestsPerSecond > 0 {
		c = rpc.NewWithCustomRPCClient(rpc.NewWithLimiter(
			rpcURL,
			rate.Every(time.Second/time.Duration(opts.RequestsPerSecond)),
			opts.RequestsPerSecond,
		))
	} else {
		c = rpc.New(rpcURL)
	}
	return NewClientWithRPC(c, opts)
}

// NewClientWithRPC wraps an existing RPC implementation.
func NewClientWithRPC(r RPC, opts Options) *Client {
	cm := rpc.CommitmentType(opts.Commitment)
	if cm == "" {
		cm = rpc.CommitmentConfirmed
	}
	cl := &Client{
		rpc:            r,
		commitment:     cm,
		confirmTimeout: opts.ConfirmTimeout,
		pollInterval:   opts.PollInterval,
	}
	if cl.confirmTimeout <= 0 {
		cl.confirmTimeout = defaultConfirmTimeout
	}
	if cl.pollInterval <= 0 {
		cl.pollInterval = defaultPollInterval
	}
	return cl
}

// Commitment returns the commitment level used for reads and confirmation.
func (cl *Client) Commitment() rpc.CommitmentType { return cl.commitment }

func (cl *Client) GetBalance(ctx context.Context, pubkey sol.PublicKey) (uint64, time.Duration, error) {
	start := time.Now()
	res, err := cl.rpc.GetBalance(ctx, pubkey, cl.commitment)
	lat := time.Since(start)
	observe("getBalance", lat, err)
	if err != nil {
		return 0, lat, networkError("get balance", err)
	}
	return res.Value, lat, nil
}

// LatestBlockhash fetches the checkpoint new transactions are bound to.
func (cl *Client) LatestBlockhash(ctx context.Context) (sol.Hash, error) {
	start := time.Now()
	res, err := cl.rpc.GetLatestBlockhash(ctx, cl.commitment)
	observe("getLatestBlockhash", time.Since(start), err)
	if err != nil {
		return sol.Hash{}, networkError("get latest blockhash", err)
	}
	if res == nil || res.Value == nil {
		return sol.Hash{}, networkError("get latest blockhash", errors.New("empty response"))
	}
	return res.Value.Blockhash, nil
}

// EstimateFee asks the node what msg would cost in lamports.
func (cl *Client) EstimateFee(ctx context.Context, msg *sol.Message) (uint64, error) {
	raw, err := msg.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("encode message: %w", err)
	}
	start := time.Now()
	res, err := cl.rpc.GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(raw), cl.commitment)
	observe("getFeeForMessage", time.Since(start), err)
	if err != nil {
		return 0, networkError("get fee for message", err)
	}
	if res == nil || res.Value == nil {
		return 0, ErrFeeUnavailable
	}
	return *res.Value, nil
}

// BuildSigned binds ixs to blockhash with payer as fee payer and signs with
// every signer the message requires. Extra signers are ignored; a missing
// one is an error.
func BuildSigned(ixs []sol.Instruction, payer sol.PublicKey, blockhash sol.Hash, signers ...sol.PrivateKey) (*sol.Transaction, error) {
	if len(signers) == 0 {
		return nil, ErrNoSigners
	}
	tx, err := sol.NewTransaction(ixs, blockhash, sol.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	_, err = tx.Sign(func(key sol.PublicKey) *sol.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

// SendAndConfirm submits tx with preflight checks and waits until it reaches
// the client's commitment level. The signature is returned even when
// confirmation fails so callers can look it up.
func (cl *Client) SendAndConfirm(ctx context.Context, tx *sol.Transaction) (sol.Signature, error) {
	start := time.Now()
	sig, err := cl.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: cl.commitment,
	})
	observe("sendTransaction", time.Since(start), err)
	if err != nil {
		return sol.Signature{}, networkError("send transaction", err)
	}
	if err := cl.confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// Submit fetches a fresh blockhash, signs ixs and sends them.
func (cl *Client) Submit(ctx context.Context, ixs []sol.Instruction, payer sol.PublicKey, signers ...sol.PrivateKey) (sol.Signature, error) {
	hash, err := cl.LatestBlockhash(ctx)
	if err != nil {
		return sol.Signature{}, err
	}
	tx, err := BuildSigned(ixs, payer, hash, signers...)
	if err != nil {
		return sol.Signature{}, err
	}
	return cl.SendAndConfirm(ctx, tx)
}

func observe(method string, d time.Duration, err error) {
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}
	metrics.RPCRequests.WithLabelValues(method, status).Inc()
	metrics.RPCDuration.WithLabelValues(method).Observe(d.Seconds())
}

func networkError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNetwork, op, err)
}
