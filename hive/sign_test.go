package hive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
)

// The uncompressed-key WIF example from the Bitcoin wiki; Hive uses the
// identical encoding.
const testWIF = "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"

const testWIFKeyHex = "0c28fca386c7a227600b2fe50b7cae11ec86d3bf1fbe471be89827e19d72aa1d"

func TestDecodeWIF(t *testing.T) {
	key, err := decodeWIF(testWIF)
	assert.NoError(t, err)
	assert.Equal(t, testWIFKeyHex, hex.EncodeToString(key.Serialize()))
}

func TestDecodeWIFBadChecksum(t *testing.T) {
	corrupted := testWIF[:len(testWIF)-1] + "K"

	_, err := decodeWIF(corrupted)

	var ledgerErr *Error
	assert.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, KindInvalidKey, ledgerErr.Kind)
	assert.True(t, ledgerErr.Fatal())
}

func TestDecodeWIFWrongVersion(t *testing.T) {
	payload, err := hex.DecodeString(testWIFKeyHex)
	assert.NoError(t, err)

	// Same payload behind the testnet version byte
	testnetWIF := base58.CheckEncode(payload, 0xef)

	_, decodeErr := decodeWIF(testnetWIF)

	var ledgerErr *Error
	assert.ErrorAs(t, decodeErr, &ledgerErr)
	assert.Equal(t, KindInvalidKey, ledgerErr.Kind)
}

func TestDecodeWIFGarbage(t *testing.T) {
	_, err := decodeWIF("not-a-key")

	var ledgerErr *Error
	assert.True(t, errors.As(err, &ledgerErr))
	assert.Equal(t, KindInvalidKey, ledgerErr.Kind)
}

func TestSignCanonical(t *testing.T) {
	key, err := decodeWIF(testWIF)
	assert.NoError(t, err)

	digest := sha256.Sum256([]byte("feed_publish test payload"))

	sig, err := signCanonical(key, digest[:])
	assert.NoError(t, err)
	assert.Len(t, sig, 65)

	// Recovery byte for a compressed public key
	assert.GreaterOrEqual(t, sig[0], byte(31))
	assert.LessOrEqual(t, sig[0], byte(34))

	assert.True(t, isCanonical(sig[1:]))

	// Deterministic nonces make signing repeatable
	again, err := signCanonical(key, digest[:])
	assert.NoError(t, err)
	assert.Equal(t, sig, again)
}

func TestSignCanonicalDiffersPerDigest(t *testing.T) {
	key, err := decodeWIF(testWIF)
	assert.NoError(t, err)

	first := sha256.Sum256([]byte("payload one"))
	second := sha256.Sum256([]byte("payload two"))

	sigOne, err := signCanonical(key, first[:])
	assert.NoError(t, err)

	sigTwo, err := signCanonical(key, second[:])
	assert.NoError(t, err)

	assert.NotEqual(t, sigOne, sigTwo)
}

func TestIsCanonical(t *testing.T) {
	tests := []struct {
		name string
		rs   func() []byte
		want bool
	}{
		{
			name: "plain values",
			rs: func() []byte {
				rs := make([]byte, 64)
				rs[0] = 0x10
				rs[32] = 0x10

				return rs
			},
			want: true,
		},
		{
			name: "high bit set on r",
			rs: func() []byte {
				rs := make([]byte, 64)
				rs[0] = 0x80
				rs[32] = 0x10

				return rs
			},
			want: false,
		},
		{
			name: "redundant leading zero on s",
			rs: func() []byte {
				rs := make([]byte, 64)
				rs[0] = 0x10
				rs[32] = 0x00
				rs[33] = 0x10

				return rs
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isCanonical(tt.rs()))
		})
	}
}
