package pda

import (
	"fmt"
	"strings"

	"github.com/example/prereqkit/internal/wallet"
	sol "github.com/gagliardetto/solana-go"
)

// Seed kinds accepted by ParseSeed.
const (
	SeedUTF8   = "utf8"
	SeedPubkey = "pubkey"
	SeedBase58 = "base58"
	SeedBytes  = "bytes"
)

// ParseSeed decodes a "kind:value" seed argument. An argument without a
// kind prefix is taken as utf8.
//
//	utf8:prereqs
//	pubkey:5ebsp5RChCGK7ssRZMVMufgVZhd2kFbNaotcZ5UvytN2
//	base58:Ldp
//	bytes:[1,2,3]
func ParseSeed(arg string) ([]byte, error) {
	kind, value, ok := strings.Cut(arg, ":")
	if !ok {
		kind, value = SeedUTF8, arg
	}
	switch kind {
	case SeedUTF8:
		return []byte(value), nil
	case SeedPubkey:
		pk, err := sol.PublicKeyFromBase58(value)
		if err != nil {
			return nil, fmt.Errorf("%w: pubkey seed %q: %v", ErrMalformedSeeds, value, err)
		}
		return pk.Bytes(), nil
	case SeedBase58:
		b, err := wallet.DecodeBase58(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSeeds, err)
		}
		return b, nil
	case SeedBytes:
		b, err := wallet.ParseByteList(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSeeds, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown seed kind %q", ErrMalformedSeeds, kind)
	}
}

// ParseSeeds decodes each argument in order.
func ParseSeeds(args []string) ([][]byte, error) {
	out := make([][]byte, 0, len(args))
	for _, s := range args {
		b, err := ParseSeed(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
