package wallet

import (
	"errors"
	"fmt"
	"os"

	sol "github.com/gagliardetto/solana-go"
)

// ErrMissingCredential is returned when a keypair file is absent, unreadable or malformed.
var ErrMissingCredential = errors.New("missing credential")

// New generates a fresh identity.
func New() sol.PrivateKey {
	return sol.NewWallet().PrivateKey
}

// Load reads a solana-keygen style JSON byte array keypair file.
func Load(path string) (sol.PrivateKey, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no keypair path given", ErrMissingCredential)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingCredential, path, err)
	}
	key, err := sol.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingCredential, path, err)
	}
	if !key.IsValid() {
		return nil, fmt.Errorf("%w: %s: invalid keypair", ErrMissingCredential, path)
	}
	return key, nil
}

// Save writes key to path in the keygen byte-array format, readable only by the owner.
func Save(path string, key sol.PrivateKey) error {
	if len(key) != 64 {
		return fmt.Errorf("%w: keypair must be 64 bytes, got %d", ErrMalformedInput, len(key))
	}
	return os.WriteFile(path, []byte(FormatByteList(key)), 0o600)
}

// FromBytes validates raw keypair bytes, such as the output of DecodeBase58.
func FromBytes(b []byte) (sol.PrivateKey, error) {
	key := sol.PrivateKey(b)
	if len(b) != 64 || !key.IsValid() {
		return nil, fmt.Errorf("%w: not a 64-byte ed25519 keypair", ErrMalformedInput)
	}
	return key, nil
}
