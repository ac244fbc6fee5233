package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// ErrInsufficientBalance is returned by Sweep when the balance does not cover the fee.
var ErrInsufficientBalance = errors.New("insufficient balance to cover fee")

// SweepResult describes a completed Sweep.
type SweepResult struct {
	Signature sol.Signature
	Balance   uint64
	Fee       uint64
	Amount    uint64
}

// RequestAirdrop asks the cluster faucet for lamports and waits for confirmation.
func (cl *Client) RequestAirdrop(ctx context.Context, to sol.PublicKey, lamports uint64) (sol.Signature, error) {
	start := time.Now()
	sig, err := cl.rpc.RequestAirdrop(ctx, to, lamports, cl.commitment)
	observe("requestAirdrop", time.Since(start), err)
	if err != nil {
		return sol.Signature{}, networkError("request airdrop", err)
	}
	if err := cl.confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// Transfer moves lamports from one wallet to another; from pays the fee.
func (cl *Client) Transfer(ctx context.Context, from sol.PrivateKey, to sol.PublicKey, lamports uint64) (sol.Signature, error) {
	ix := system.NewTransferInstruction(lamports, from.PublicKey(), to).Build()
	return cl.Submit(ctx, []sol.Instruction{ix}, from.PublicKey(), from)
}

// Sweep transfers the whole balance of from to to, less the fee of the
// transfer itself, leaving from at zero.
func (cl *Client) Sweep(ctx context.Context, from sol.PrivateKey, to sol.PublicKey) (SweepResult, error) {
	balance, _, err := cl.GetBalance(ctx, from.PublicKey())
	if err != nil {
		return SweepResult{}, err
	}
	hash, err := cl.LatestBlockhash(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	// price a transfer of the full balance; the fee does not depend on the amount
	probe, err := sol.NewTransaction(
		[]sol.Instruction{system.NewTransferInstruction(balance, from.PublicKey(), to).Build()},
		hash,
		sol.TransactionPayer(from.PublicKey()),
	)
	if err != nil {
		return SweepResult{}, fmt.Errorf("build fee probe: %w", err)
	}
	fee, err := cl.EstimateFee(ctx, &probe.Message)
	if err != nil {
		return SweepResult{}, err
	}
	if balance <= fee {
		return SweepResult{Balance: balance, Fee: fee}, fmt.Errorf("%w: balance=%d fee=%d", ErrInsufficientBalance, balance, fee)
	}

	amount := balance - fee
	tx, err := BuildSigned(
		[]sol.Instruction{system.NewTransferInstruction(amount, from.PublicKey(), to).Build()},
		from.PublicKey(),
		hash,
		from,
	)
	if err != nil {
		return SweepResult{}, err
	}
	sig, err := cl.SendAndConfirm(ctx, tx)
	res := SweepResult{Signature: sig, Balance: balance, Fee: fee, Amount: amount}
	if err != nil {
		return res, err
	}
	return res, nil
}
