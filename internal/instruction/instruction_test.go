package instruction

import (
	"encoding/binary"
	"testing"

	sol "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	program    = sol.MustPublicKeyFromBase58("TRBZyQHB3m68FGeVsqTK39Wm4xejadjVhP5MAZaKWDM")
	collection = sol.MustPublicKeyFromBase58("5ebsp5RChCGK7ssRZMVMufgVZhd2kFbNaotcZ5UvytN2")
	mplCore    = sol.MustPublicKeyFromBase58("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")
	blockhash  = sol.Hash{1, 2, 3, 4}
)

func serialize(t *testing.T, ix sol.Instruction, payer sol.PublicKey) []byte {
	t.Helper()
	tx, err := sol.NewTransaction([]sol.Instruction{ix}, blockhash, sol.TransactionPayer(payer))
	require.NoError(t, err)
	b, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestBuild_ByteIdentical(t *testing.T) {
	payer := sol.NewWallet().PublicKey()
	other := sol.NewWallet().PublicKey()
	accounts := []*sol.AccountMeta{
		sol.NewAccountMeta(payer, true, true),
		sol.NewAccountMeta(other, false, false),
	}
	payload := []byte{9, 8, 7}

	a := serialize(t, Build(program, accounts, payload), payer)
	b := serialize(t, Build(program, accounts, payload), payer)
	assert.Equal(t, a, b)
}

func TestBuild_CopiesInputs(t *testing.T) {
	acct := sol.NewWallet().PublicKey()
	accounts := []*sol.AccountMeta{sol.NewAccountMeta(acct, true, false)}
	payload := []byte{1, 2, 3}

	ix := Build(program, accounts, payload)
	payload[0] = 0xff
	accounts[0].IsWritable = false

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.True(t, ix.Accounts()[0].IsWritable)
}

func TestBuild_NilEntriesDropped(t *testing.T) {
	first := sol.NewWallet().PublicKey()
	second := sol.NewWallet().PublicKey()

	ix := Build(program, []*sol.AccountMeta{
		sol.NewAccountMeta(first, true, true),
		nil,
		sol.NewAccountMeta(second, false, false),
	}, nil)

	accts := ix.Accounts()
	require.Len(t, accts, 2)
	assert.Equal(t, first, accts[0].PublicKey)
	assert.Equal(t, second, accts[1].PublicKey, "later accounts shift up")
}

func TestBuild_EmptyAccounts(t *testing.T) {
	ix := Build(program, nil, nil)
	assert.Equal(t, program, ix.ProgramID())
	assert.Empty(t, ix.Accounts())
	data, err := ix.Data()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSubmitRs_Layout(t *testing.T) {
	a := SubmitAccounts{
		Signer:              sol.NewWallet().PublicKey(),
		PrereqsAccount:      sol.NewWallet().PublicKey(),
		Mint:                sol.NewWallet().PublicKey(),
		Collection:          collection,
		CollectionAuthority: sol.NewWallet().PublicKey(),
		MplCoreProgram:      mplCore,
	}
	ix := SubmitRs(program, a)

	want := []struct {
		key              sol.PublicKey
		writable, signer bool
	}{
		{a.Signer, true, true},
		{a.PrereqsAccount, true, false},
		{a.Mint, true, true},
		{a.Collection, true, false},
		{a.CollectionAuthority, false, false},
		{a.MplCoreProgram, false, false},
		{sol.SystemProgramID, false, false},
	}
	got := ix.Accounts()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.key, got[i].PublicKey, "account %d", i)
		assert.Equal(t, w.writable, got[i].IsWritable, "account %d writable", i)
		assert.Equal(t, w.signer, got[i].IsSigner, "account %d signer", i)
	}

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{77, 124, 82, 163, 21, 133, 181, 206}, data)
	assert.Equal(t, program, ix.ProgramID())
}

func TestInitialize_Encoding(t *testing.T) {
	signer := sol.NewWallet().PublicKey()
	account := sol.NewWallet().PublicKey()

	ix, err := Initialize(program, signer, account, " octocat ")
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+4+len("octocat"))
	assert.Equal(t, []byte{175, 175, 109, 31, 13, 152, 155, 237}, data[:8])
	assert.Equal(t, uint32(len("octocat")), binary.LittleEndian.Uint32(data[8:12]))
	assert.Equal(t, "octocat", string(data[12:]))

	accts := ix.Accounts()
	require.Len(t, accts, 3)
	assert.Equal(t, signer, accts[0].PublicKey)
	assert.True(t, accts[0].IsSigner)
	assert.Equal(t, account, accts[1].PublicKey)
	assert.True(t, accts[1].IsWritable)
	assert.Equal(t, sol.SystemProgramID, accts[2].PublicKey)
}

func TestInitialize_EmptyHandle(t *testing.T) {
	_, err := Initialize(program, sol.NewWallet().PublicKey(), sol.NewWallet().PublicKey(), "  ")
	assert.ErrorIs(t, err, ErrEmptyHandle)
}

func TestAnchorDiscriminator(t *testing.T) {
	assert.Equal(t, InitializeDiscriminator, AnchorDiscriminator("initialize"))
	assert.NotEqual(t, AnchorDiscriminator("initialize"), AnchorDiscriminator("submit_ts"))
}
