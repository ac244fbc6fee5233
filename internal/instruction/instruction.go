package instruction

import (
	"crypto/sha256"

	sol "github.com/gagliardetto/solana-go"
)

// Build assembles an instruction for program from an ordered account list and
// an opaque payload. The payload is not interpreted and the account list is not
// checked against the program's interface; both are copied so the result does
// not change if the caller reuses its slices.
//
// Nil entries name no account and are dropped, so every later account moves
// up one position. Callers with a fixed layout must not pass nil.
func Build(program sol.PublicKey, accounts []*sol.AccountMeta, payload []byte) *sol.GenericInstruction {
	metas := make(sol.AccountMetaSlice, 0, len(accounts))
	for _, a := range accounts {
		if a == nil {
			continue
		}
		metas = append(metas, sol.NewAccountMeta(a.PublicKey, a.IsWritable, a.IsSigner))
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	return sol.NewInstruction(program, metas, data)
}

// AnchorDiscriminator returns the 8-byte handler selector anchor programs use
// for the named instruction: sha256("global:<name>")[:8].
func AnchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}
