package pda

import (
	"errors"
	"fmt"

	sol "github.com/gagliardetto/solana-go"
)

const (
	// maxSeeds is the runtime limit, which counts the bump seed.
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	// ErrMalformedSeeds is returned for seed input that cannot be used for derivation.
	ErrMalformedSeeds = errors.New("malformed seeds")
	ErrTooManySeeds   = fmt.Errorf("%w: more than %d seeds", ErrMalformedSeeds, maxSeeds-1)
	ErrSeedTooLong    = fmt.Errorf("%w: seed longer than %d bytes", ErrMalformedSeeds, maxSeedLength)

	// ErrDerivationExhausted means no bump in 255..0 produced an off-curve address.
	ErrDerivationExhausted = errors.New("pda derivation exhausted")
)

// Seed tags used by the prerequisite program.
const (
	TagPrereqs    = "prereqs"
	TagCollection = "collection"
)

// Derive finds the program-derived address for seeds under owner, returning the
// address and the bump that pushed it off the ed25519 curve.
func Derive(seeds [][]byte, owner sol.PublicKey) (sol.PublicKey, uint8, error) {
	if len(seeds) >= maxSeeds {
		return sol.PublicKey{}, 0, ErrTooManySeeds
	}
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return sol.PublicKey{}, 0, ErrSeedTooLong
		}
	}
	addr, bump, err := sol.FindProgramAddress(seeds, owner)
	if err != nil {
		return sol.PublicKey{}, 0, fmt.Errorf("%w: %v", ErrDerivationExhausted, err)
	}
	return addr, bump, nil
}

// PrereqsAccount is the signer's enrollment record: ["prereqs", signer].
func PrereqsAccount(program, signer sol.PublicKey) (sol.PublicKey, uint8, error) {
	return Derive([][]byte{[]byte(TagPrereqs), signer.Bytes()}, program)
}

// CollectionAuthority is the program's authority over the collection: ["collection", collection].
func CollectionAuthority(program, collection sol.PublicKey) (sol.PublicKey, uint8, error) {
	return Derive([][]byte{[]byte(TagCollection), collection.Bytes()}, program)
}
