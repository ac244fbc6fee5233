package pda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	tt := []struct {
		name string
		arg  string
		want []byte
	}{
		{"utf8", "utf8:prereqs", []byte("prereqs")},
		{"bare", "collection", []byte("collection")},
		{"pubkey", "pubkey:" + testCollection.String(), testCollection.Bytes()},
		{"base58", "base58:Ldp", []byte{1, 2, 3}},
		{"bytes", "bytes:[1, 2, 3]", []byte{1, 2, 3}},
		{"utf8 with colon", "utf8:a:b", []byte("a:b")},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSeed(tc.arg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSeed_Errors(t *testing.T) {
	for _, arg := range []string{"pubkey:not-a-key", "base58:0OIl", "bytes:1,2", "hex:abcd"} {
		_, err := ParseSeed(arg)
		assert.ErrorIs(t, err, ErrMalformedSeeds, arg)
	}
}

func TestParseSeeds_FeedsDerive(t *testing.T) {
	seeds, err := ParseSeeds([]string{"utf8:collection", "pubkey:" + testCollection.String()})
	require.NoError(t, err)
	got, _, err := Derive(seeds, testProgram)
	require.NoError(t, err)
	want, _, err := CollectionAuthority(testProgram, testCollection)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
