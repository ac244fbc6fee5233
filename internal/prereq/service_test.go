package prereq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/example/prereqkit/internal/config"
	"github.com/example/prereqkit/internal/instruction"
	"github.com/example/prereqkit/internal/pda"
	"github.com/example/prereqkit/internal/receipts"
	"github.com/example/prereqkit/internal/solana"
	sol "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSig = sol.MustSignatureFromBase58("5KMdNedHzFX2TZtAj8fKP8pJzzRgU8xydqNBFUD2T2GfbBDPtbA1gJEXFhCRw8vERmkUs8YDQ3cBduzZ8wMEYx7k")

type mockSubmitter struct {
	SubmitFunc func(ctx context.Context, ixs []sol.Instruction, payer sol.PublicKey, signers ...sol.PrivateKey) (sol.Signature, error)
	calls      []string
}

func (m *mockSubmitter) Submit(ctx context.Context, ixs []sol.Instruction, payer sol.PublicKey, signers ...sol.PrivateKey) (sol.Signature, error) {
	data, _ := ixs[0].Data()
	if len(data) >= 8 && [8]byte(data[:8]) == instruction.SubmitRsDiscriminator {
		m.calls = append(m.calls, KindSubmit)
	} else {
		m.calls = append(m.calls, KindInitialize)
	}
	return m.SubmitFunc(ctx, ixs, payer, signers...)
}

type mockRecorder struct {
	got []receipts.Receipt
	err error
}

func (m *mockRecorder) Record(_ context.Context, r receipts.Receipt) error {
	m.got = append(m.got, r)
	return m.err
}

func newService(chain Submitter, rec receipts.Recorder) (*Service, sol.PrivateKey) {
	mint := sol.NewWallet().PrivateKey
	return &Service{
		Chain:    chain,
		Programs: config.DefaultPrograms(),
		Receipts: rec,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewMint:  func() sol.PrivateKey { return mint },
	}, mint
}

func TestPreview(t *testing.T) {
	t.Parallel()
	svc, _ := newService(nil, nil)
	programs := svc.Programs
	signer := sol.NewWallet().PublicKey()
	mint := sol.NewWallet().PublicKey()

	plan, err := svc.Preview(signer, mint)
	require.NoError(t, err)

	wantPrereqs, wantBump, err := pda.Derive([][]byte{[]byte("prereqs"), signer.Bytes()}, programs.Program)
	require.NoError(t, err)
	wantAuth, _, err := pda.Derive([][]byte{[]byte("collection"), programs.Collection.Bytes()}, programs.Program)
	require.NoError(t, err)

	assert.Equal(t, wantPrereqs, plan.PrereqsAccount)
	assert.Equal(t, wantBump, plan.PrereqsBump)
	assert.Equal(t, wantAuth, plan.CollectionAuthority)

	accts := plan.Instruction.Accounts()
	require.Len(t, accts, 7)
	assert.Equal(t, signer, accts[0].PublicKey)
	assert.Equal(t, wantPrereqs, accts[1].PublicKey)
	assert.Equal(t, mint, accts[2].PublicKey)
	assert.Equal(t, programs.Collection, accts[3].PublicKey)
	assert.Equal(t, wantAuth, accts[4].PublicKey)
	assert.Equal(t, programs.MplCore, accts[5].PublicKey)
	assert.Equal(t, sol.SystemProgramID, accts[6].PublicKey)
	assert.Equal(t, programs.Program, plan.Instruction.ProgramID())

	again, err := svc.Preview(signer, mint)
	require.NoError(t, err)
	assert.Equal(t, plan.PrereqsAccount, again.PrereqsAccount)
	assert.Equal(t, plan.CollectionAuthority, again.CollectionAuthority)
}

func TestSubmit_SignsWithSignerAndMint(t *testing.T) {
	t.Parallel()
	signer := sol.NewWallet().PrivateKey
	rec := &mockRecorder{}
	chain := &mockSubmitter{}
	svc, mint := newService(chain, rec)
	chain.SubmitFunc = func(_ context.Context, ixs []sol.Instruction, payer sol.PublicKey, signers ...sol.PrivateKey) (sol.Signature, error) {
		require.Len(t, ixs, 1)
		assert.Equal(t, signer.PublicKey(), payer)
		require.Len(t, signers, 2)
		assert.Equal(t, signer.PublicKey(), signers[0].PublicKey())
		assert.Equal(t, mint.PublicKey(), signers[1].PublicKey())
		return testSig, nil
	}

	res, err := svc.Submit(context.Background(), signer)
	require.NoError(t, err)
	assert.Equal(t, KindSubmit, res.Kind)
	assert.Equal(t, testSig, res.Signature)
	assert.Equal(t, mint.PublicKey(), res.Mint)

	require.Len(t, rec.got, 1)
	assert.Equal(t, signer.PublicKey().String(), rec.got[0].Signer)
	assert.Equal(t, mint.PublicKey().String(), rec.got[0].Mint)
	assert.Equal(t, KindSubmit, rec.got[0].Kind)
	assert.Equal(t, testSig.String(), rec.got[0].Signature)
}

func TestSubmit_PropagatesFailure(t *testing.T) {
	t.Parallel()
	rec := &mockRecorder{}
	chain := &mockSubmitter{SubmitFunc: func(context.Context, []sol.Instruction, sol.PublicKey, ...sol.PrivateKey) (sol.Signature, error) {
		return sol.Signature{}, solana.ErrNetwork
	}}
	svc, _ := newService(chain, rec)

	_, err := svc.Submit(context.Background(), sol.NewWallet().PrivateKey)
	require.ErrorIs(t, err, solana.ErrNetwork)
	assert.Empty(t, rec.got)
}

func TestSubmit_ReceiptFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	rec := &mockRecorder{err: errors.New("mongo down")}
	chain := &mockSubmitter{SubmitFunc: func(context.Context, []sol.Instruction, sol.PublicKey, ...sol.PrivateKey) (sol.Signature, error) {
		return testSig, nil
	}}
	svc, _ := newService(chain, rec)

	res, err := svc.Submit(context.Background(), sol.NewWallet().PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, testSig, res.Signature)
}

func TestInitialize(t *testing.T) {
	t.Parallel()
	signer := sol.NewWallet().PrivateKey
	chain := &mockSubmitter{SubmitFunc: func(_ context.Context, ixs []sol.Instruction, payer sol.PublicKey, signers ...sol.PrivateKey) (sol.Signature, error) {
		require.Len(t, signers, 1)
		data, err := ixs[0].Data()
		require.NoError(t, err)
		assert.Equal(t, instruction.InitializeDiscriminator[:], data[:8])
		return testSig, nil
	}}
	svc, _ := newService(chain, nil)

	res, err := svc.Initialize(context.Background(), signer, "octocat")
	require.NoError(t, err)
	assert.Equal(t, KindInitialize, res.Kind)
	assert.True(t, res.Mint.IsZero())

	_, err = svc.Initialize(context.Background(), signer, "")
	require.ErrorIs(t, err, instruction.ErrEmptyHandle)
}

func TestEnroll(t *testing.T) {
	t.Parallel()
	alreadyInUse := errors.New("Transaction simulation failed: Allocate: account Address { address: x, base: None } already in use")
	alreadySubmitted := errors.New("Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1771")

	tests := []struct {
		name          string
		initErr       error
		submitErr     error
		wantErr       bool
		wantInitSkip  bool
		wantSubmitSkp bool
		wantCalls     []string
	}{
		{name: "fresh", wantCalls: []string{KindInitialize, KindSubmit}},
		{name: "already initialized", initErr: alreadyInUse, wantInitSkip: true, wantCalls: []string{KindInitialize, KindSubmit}},
		{name: "anchor account exists", initErr: errors.New("custom program error: 0x0"), wantInitSkip: true, wantCalls: []string{KindInitialize, KindSubmit}},
		{name: "already submitted", initErr: alreadyInUse, submitErr: alreadySubmitted, wantInitSkip: true, wantSubmitSkp: true, wantCalls: []string{KindInitialize, KindSubmit}},
		{name: "initialize fails", initErr: solana.ErrConfirmTimeout, wantErr: true, wantCalls: []string{KindInitialize}},
		{name: "submit fails", submitErr: solana.ErrTransactionFailed, wantErr: true, wantCalls: []string{KindInitialize, KindSubmit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &mockSubmitter{}
			chain.SubmitFunc = func(_ context.Context, _ []sol.Instruction, _ sol.PublicKey, signers ...sol.PrivateKey) (sol.Signature, error) {
				if len(signers) == 1 {
					return testSig, tt.initErr
				}
				return testSig, tt.submitErr
			}
			svc, _ := newService(chain, nil)

			res, err := svc.Enroll(context.Background(), sol.NewWallet().PrivateKey, "octocat")
			assert.Equal(t, tt.wantCalls, chain.calls)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInitSkip, res.AlreadyInitialized)
			assert.Equal(t, tt.wantSubmitSkp, res.AlreadySubmitted)
			assert.False(t, res.Initialize.PrereqsAccount.IsZero())
			if !tt.wantSubmitSkp {
				assert.Equal(t, testSig, res.Submit.Signature)
			}
		})
	}
}

func TestAlreadyErrors(t *testing.T) {
	t.Parallel()
	assert.False(t, IsAlreadyInitialized(nil))
	assert.False(t, IsAlreadySubmitted(nil))
	assert.False(t, IsAlreadySubmitted(errors.New("custom program error: 0x0")))
	assert.True(t, IsAlreadySubmitted(errors.New("wrapped: custom program error: 0x1771")))
	assert.False(t, IsAlreadyInitialized(solana.ErrNetwork))
}
