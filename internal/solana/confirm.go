package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var errPending = errors.New("transaction not yet confirmed")

// confirm polls the signature status until it reaches the client's commitment,
// the transaction fails on chain, or the confirmation timeout elapses.
func (cl *Client) confirm(ctx context.Context, sig sol.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, cl.confirmTimeout)
	defer cancel()

	want := commitmentLevel(cl.commitment)
	poll := func() error {
		start := time.Now()
		out, err := cl.rpc.GetSignatureStatuses(ctx, false, sig)
		observe("getSignatureStatuses", time.Since(start), err)
		if err != nil {
			return networkError("get signature statuses", err)
		}
		if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
			return errPending
		}
		st := out.Value[0]
		if st.Err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s: %v", ErrTransactionFailed, sig, st.Err))
		}
		if statusLevel(st.ConfirmationStatus) < want {
			return errPending
		}
		return nil
	}

	err := backoff.Retry(poll, backoff.WithContext(backoff.NewConstantBackOff(cl.pollInterval), ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransactionFailed) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s after %s: %w", ErrConfirmTimeout, sig, cl.confirmTimeout, ctxErr)
	}
	return err
}

func statusLevel(s rpc.ConfirmationStatusType) int {
	switch s {
	case rpc.ConfirmationStatusProcessed:
		return 1
	case rpc.ConfirmationStatusConfirmed:
		return 2
	case rpc.ConfirmationStatusFinalized:
		return 3
	default:
		return 0
	}
}

func commitmentLevel(c rpc.CommitmentType) int {
	switch c {
	case rpc.CommitmentProcessed:
		return 1
	case rpc.CommitmentFinalized:
		return 3
	default:
		return 2
	}
}
