package instruction

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"

	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
)

// SubmitRsDiscriminator selects the prerequisite program's submit_rs handler.
var SubmitRsDiscriminator = [8]byte{77, 124, 82, 163, 21, 133, 181, 206}

// InitializeDiscriminator selects the prerequisite program's initialize handler.
var InitializeDiscriminator = AnchorDiscriminator("initialize")

var ErrEmptyHandle = errors.New("github handle is required")

// SubmitAccounts are the accounts the submit_rs handler reads, in no particular
// order; SubmitRs lays them out the way the program expects.
type SubmitAccounts struct {
	Signer              sol.PublicKey
	PrereqsAccount      sol.PublicKey
	Mint                sol.PublicKey
	Collection          sol.PublicKey
	CollectionAuthority sol.PublicKey
	MplCoreProgram      sol.PublicKey
	SystemProgram       sol.PublicKey
}

// SubmitRs builds the submit_rs instruction. Account order and flags are
// fixed by the program.
func SubmitRs(program sol.PublicKey, a SubmitAccounts) *sol.GenericInstruction {
	system := a.SystemProgram
	if system.IsZero() {
		system = sol.SystemProgramID
	}
	return Build(program, []*sol.AccountMeta{
		sol.NewAccountMeta(a.Signer, true, true),
		sol.NewAccountMeta(a.PrereqsAccount, true, false),
		sol.NewAccountMeta(a.Mint, true, true),
		sol.NewAccountMeta(a.Collection, true, false),
		sol.NewAccountMeta(a.CollectionAuthority, false, false),
		sol.NewAccountMeta(a.MplCoreProgram, false, false),
		sol.NewAccountMeta(system, false, false),
	}, SubmitRsDiscriminator[:])
}

// Initialize builds the initialize instruction that creates the signer's
// prereqs account and stores their github handle.
func Initialize(program, signer, prereqsAccount sol.PublicKey, github string) (*sol.GenericInstruction, error) {
	github = strings.TrimSpace(github)
	if github == "" {
		return nil, ErrEmptyHandle
	}
	data, err := encodeInitializeArgs(github)
	if err != nil {
		return nil, err
	}
	return Build(program, []*sol.AccountMeta{
		sol.NewAccountMeta(signer, true, true),
		sol.NewAccountMeta(prereqsAccount, true, false),
		sol.NewAccountMeta(sol.SystemProgramID, false, false),
	}, data), nil
}

func encodeInitializeArgs(github string) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(InitializeDiscriminator[:], false); err != nil {
		return nil, err
	}
	// borsh string: u32 little-endian length, then utf-8 bytes
	if err := enc.WriteUint32(uint32(len(github)), binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes([]byte(github), false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
