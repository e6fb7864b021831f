package hive

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Hive WIF keys carry the Bitcoin mainnet private key version byte
const wifVersion = 0x80

// Nodes reject signatures whose encoding is not canonical, so signing
// retries with fresh deterministic nonces until one satisfies the check.
const maxSigningAttempts = 100

// decodeWIF decodes a base58check-encoded active key into a private key
func decodeWIF(wif string) (*secp256k1.PrivateKey, error) {
	decoded, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, &Error{Kind: KindInvalidKey, Op: "decode key", Err: err}
	}

	if version != wifVersion {
		return nil, &Error{
			Kind: KindInvalidKey,
			Op:   "decode key",
			Err:  fmt.Errorf("unexpected version byte 0x%02x", version),
		}
	}

	if len(decoded) != 32 {
		return nil, &Error{
			Kind: KindInvalidKey,
			Op:   "decode key",
			Err:  fmt.Errorf("key payload is %d bytes, want 32", len(decoded)),
		}
	}

	return secp256k1.PrivKeyFromBytes(decoded), nil
}

// signCanonical produces a 65-byte compact recoverable signature over digest
// in the canonical form Hive nodes accept: recovery byte (27 + 4 for a
// compressed public key) followed by r and s.
func signCanonical(key *secp256k1.PrivateKey, digest []byte) ([]byte, error) {
	var e secp256k1.ModNScalar
	e.SetByteSlice(digest)

	priv := key.Serialize()

	for iteration := uint32(0); iteration < maxSigningAttempts; iteration++ {
		k := secp256k1.NonceRFC6979(priv, digest, nil, nil, iteration)

		var kG secp256k1.JacobianPoint
		secp256k1.ScalarBaseMultNonConst(k, &kG)
		kG.ToAffine()

		var r secp256k1.ModNScalar
		overflow := r.SetBytes(kG.X.Bytes())
		if r.IsZero() {
			continue
		}

		recoveryCode := byte(overflow << 1)
		if kG.Y.IsOdd() {
			recoveryCode |= 1
		}

		kInv := new(secp256k1.ModNScalar).InverseValNonConst(k)
		s := new(secp256k1.ModNScalar).Mul2(&r, &key.Key).Add(&e).Mul(kInv)
		k.Zero()

		if s.IsZero() {
			continue
		}

		if s.IsOverHalfOrder() {
			s.Negate()
			recoveryCode ^= 1
		}

		sig := make([]byte, 65)
		sig[0] = 27 + 4 + recoveryCode
		rBytes := r.Bytes()
		copy(sig[1:33], rBytes[:])
		sBytes := s.Bytes()
		copy(sig[33:], sBytes[:])

		if isCanonical(sig[1:]) {
			return sig, nil
		}
	}

	return nil, fmt.Errorf("no canonical signature found in %d attempts", maxSigningAttempts)
}

// isCanonical applies the graphene canonicality rule to a 64-byte r || s:
// neither component may have its high bit set or a redundant leading zero.
func isCanonical(rs []byte) bool {
	return rs[0]&0x80 == 0 &&
		!(rs[0] == 0 && rs[1]&0x80 == 0) &&
		rs[32]&0x80 == 0 &&
		!(rs[32] == 0 && rs[33]&0x80 == 0)
}
