// Package prereq drives the prerequisite-submission program: it derives the
// program's accounts, assembles its instructions and hands them to a signer.
package prereq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/prereqkit/internal/config"
	"github.com/example/prereqkit/internal/instruction"
	"github.com/example/prereqkit/internal/metrics"
	"github.com/example/prereqkit/internal/pda"
	"github.com/example/prereqkit/internal/receipts"
	"github.com/example/prereqkit/internal/wallet"
	sol "github.com/gagliardetto/solana-go"
)

const (
	KindInitialize = "initialize"
	KindSubmit     = "submit_rs"
)

// Submitter signs, sends and confirms a transaction. *solana.Client
// satisfies it.
type Submitter interface {
	Submit(ctx context.Context, ixs []sol.Instruction, payer sol.PublicKey, signers ...sol.PrivateKey) (sol.Signature, error)
}

// Plan is everything needed to send submit_rs, computed offline.
type Plan struct {
	Signer              sol.PublicKey
	Mint                sol.PublicKey
	PrereqsAccount      sol.PublicKey
	PrereqsBump         uint8
	CollectionAuthority sol.PublicKey
	AuthorityBump       uint8
	Instruction         *sol.GenericInstruction
}

// Result describes one confirmed transaction.
type Result struct {
	Kind           string
	Signature      sol.Signature
	PrereqsAccount sol.PublicKey
	Mint           sol.PublicKey
}

// EnrollResult reports both steps of Enroll. A step that the program
// reports as already done is flagged and carries no signature.
type EnrollResult struct {
	Initialize         Result
	Submit             Result
	AlreadyInitialized bool
	AlreadySubmitted   bool
}

type Service struct {
	Chain    Submitter
	Programs config.Programs
	Receipts receipts.Recorder
	Log      *slog.Logger

	// NewMint generates the mint identity for submit_rs. Defaults to wallet.New.
	NewMint func() sol.PrivateKey
}

func (s *Service) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// Preview derives both PDAs and builds the submit_rs instruction for signer
// and mint. It performs no network access.
func (s *Service) Preview(signer, mint sol.PublicKey) (Plan, error) {
	prereqs, pBump, err := pda.PrereqsAccount(s.Programs.Program, signer)
	if err != nil {
		return Plan{}, fmt.Errorf("derive prereqs account: %w", err)
	}
	authority, aBump, err := pda.CollectionAuthority(s.Programs.Program, s.Programs.Collection)
	if err != nil {
		return Plan{}, fmt.Errorf("derive collection authority: %w", err)
	}
	ix := instruction.SubmitRs(s.Programs.Program, instruction.SubmitAccounts{
		Signer:              signer,
		PrereqsAccount:      prereqs,
		Mint:                mint,
		Collection:          s.Programs.Collection,
		CollectionAuthority: authority,
		MplCoreProgram:      s.Programs.MplCore,
		SystemProgram:       sol.SystemProgramID,
	})
	return Plan{
		Signer:              signer,
		Mint:                mint,
		PrereqsAccount:      prereqs,
		PrereqsBump:         pBump,
		CollectionAuthority: authority,
		AuthorityBump:       aBump,
		Instruction:         ix,
	}, nil
}

// Submit generates a fresh mint and sends submit_rs signed by signer and the
// mint, with signer paying the fee.
func (s *Service) Submit(ctx context.Context, signer sol.PrivateKey) (Result, error) {
	newMint := s.NewMint
	if newMint == nil {
		newMint = wallet.New
	}
	mint := newMint()

	plan, err := s.Preview(signer.PublicKey(), mint.PublicKey())
	if err != nil {
		return Result{}, err
	}
	s.log().Debug("submitting prerequisites",
		"signer", signer.PublicKey(), "mint", mint.PublicKey(), "prereqs", plan.PrereqsAccount)

	sig, err := s.Chain.Submit(ctx, []sol.Instruction{plan.Instruction}, signer.PublicKey(), signer, mint)
	res := Result{Kind: KindSubmit, Signature: sig, PrereqsAccount: plan.PrereqsAccount, Mint: mint.PublicKey()}
	if err != nil {
		metrics.Submissions.WithLabelValues(KindSubmit, metrics.OutcomeFailed).Inc()
		return res, fmt.Errorf("submit_rs: %w", err)
	}
	metrics.Submissions.WithLabelValues(KindSubmit, metrics.OutcomeConfirmed).Inc()
	s.record(ctx, res, signer.PublicKey())
	return res, nil
}

// Initialize registers signer's GitHub handle, creating the prereqs account.
func (s *Service) Initialize(ctx context.Context, signer sol.PrivateKey, github string) (Result, error) {
	prereqs, _, err := pda.PrereqsAccount(s.Programs.Program, signer.PublicKey())
	if err != nil {
		return Result{}, fmt.Errorf("derive prereqs account: %w", err)
	}
	ix, err := instruction.Initialize(s.Programs.Program, signer.PublicKey(), prereqs, github)
	if err != nil {
		return Result{}, err
	}
	s.log().Debug("initializing", "signer", signer.PublicKey(), "prereqs", prereqs)

	sig, err := s.Chain.Submit(ctx, []sol.Instruction{ix}, signer.PublicKey(), signer)
	res := Result{Kind: KindInitialize, Signature: sig, PrereqsAccount: prereqs}
	if err != nil {
		metrics.Submissions.WithLabelValues(KindInitialize, metrics.OutcomeFailed).Inc()
		return res, fmt.Errorf("initialize: %w", err)
	}
	metrics.Submissions.WithLabelValues(KindInitialize, metrics.OutcomeConfirmed).Inc()
	s.record(ctx, res, signer.PublicKey())
	return res, nil
}

// Enroll runs Initialize then Submit. Steps the program has already seen
// for this signer are skipped rather than failing the flow.
func (s *Service) Enroll(ctx context.Context, signer sol.PrivateKey, github string) (EnrollResult, error) {
	var out EnrollResult

	res, err := s.Initialize(ctx, signer, github)
	switch {
	case err == nil:
		out.Initialize = res
	case IsAlreadyInitialized(err):
		metrics.Submissions.WithLabelValues(KindInitialize, metrics.OutcomeSkipped).Inc()
		s.log().Info("prereqs account already initialized", "signer", signer.PublicKey())
		out.AlreadyInitialized = true
		out.Initialize = Result{Kind: KindInitialize, PrereqsAccount: res.PrereqsAccount}
	default:
		return out, err
	}

	res, err = s.Submit(ctx, signer)
	switch {
	case err == nil:
		out.Submit = res
	case IsAlreadySubmitted(err):
		metrics.Submissions.WithLabelValues(KindSubmit, metrics.OutcomeSkipped).Inc()
		s.log().Info("prerequisites already submitted", "signer", signer.PublicKey())
		out.AlreadySubmitted = true
		out.Submit = Result{Kind: KindSubmit, PrereqsAccount: res.PrereqsAccount}
	default:
		return out, err
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, res Result, signer sol.PublicKey) {
	if s.Receipts == nil {
		return
	}
	r := receipts.Receipt{
		Signer:    signer.String(),
		Program:   s.Programs.Program.String(),
		Kind:      res.Kind,
		Signature: res.Signature.String(),
		CreatedAt: time.Now().UTC(),
	}
	if !res.Mint.IsZero() {
		r.Mint = res.Mint.String()
	}
	if err := s.Receipts.Record(ctx, r); err != nil {
		s.log().Warn("failed to record receipt", "signature", res.Signature, "error", err)
	}
}

// IsAlreadyInitialized reports whether err is the program refusing to
// create a prereqs account that already exists.
func IsAlreadyInitialized(err error) bool {
	return errorContains(err, "already in use", "custom program error: 0x0")
}

// IsAlreadySubmitted reports whether err is the program's "already
// submitted" custom error (6001).
func IsAlreadySubmitted(err error) bool {
	return errorContains(err, "custom program error: 0x1771")
}

func errorContains(err error, needles ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, n := range needles {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}
