// Package identity implements the signing oracle required by the Funder
// core (spec.md §6): a capability that signs a canonical byte buffer and
// exposes the local node's public key. The core never holds a private key
// directly; it only ever talks to a Signer.
package identity

import (
	"crypto/rand"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/go-errors/errors"
)

// PublicKey is the compressed serialization of a secp256k1 public key. It is
// a fixed-size array so that it can be used directly as a map key, the way
// friend/friend state keys the funder's friend map on it.
type PublicKey [33]byte

// String returns the hex encoding of the public key.
func (p PublicKey) String() string {
	return hexEncode(p[:])
}

// Signature is a serialized, DER-encoded ECDSA signature.
type Signature []byte

// Signer is the signing-oracle capability described in spec.md §6. All
// implementations must treat Sign as the only suspension point reachable
// from the Funder handler (spec.md §5): callers that hold borrows into
// mutable state across a Sign call must re-fetch after it returns.
type Signer interface {
	// Sign returns a signature over the canonical byte buffer described
	// in spec.md §6 (type-prefix byte, big-endian lengths, raw-bytes
	// fields, in the field order of MoveToken).
	Sign(buf []byte) (Signature, error)

	// PublicKey returns the signer's own public key.
	PublicKey() PublicKey
}

// LocalSigner is an in-process Signer backed by a secp256k1 private key. It
// exists for tests and for a single-node demo deployment of cmd/funderd;
// production deployments are expected to swap in a Signer backed by a
// remote key-management service without touching the Funder core.
type LocalSigner struct {
	priv *btcec.PrivateKey
	pub  PublicKey
}

// NewLocalSigner generates a fresh secp256k1 keypair and wraps it as a
// Signer.
func NewLocalSigner() (*LocalSigner, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return newLocalSignerFromKey(priv), nil
}

// NewLocalSignerFromBytes constructs a Signer from a 32-byte raw private
// key, as used by cmd/funderd to reload a persisted identity.
func NewLocalSignerFromBytes(raw []byte) (*LocalSigner, error) {
	if len(raw) != 32 {
		return nil, errors.New("private key must be 32 bytes")
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return newLocalSignerFromKey(priv), nil
}

func newLocalSignerFromKey(priv *btcec.PrivateKey) *LocalSigner {
	var pub PublicKey
	copy(pub[:], priv.PubKey().SerializeCompressed())
	return &LocalSigner{priv: priv, pub: pub}
}

// Sign hashes buf with SHA-256 and produces a deterministic (RFC6979) ECDSA
// signature over the digest.
func (s *LocalSigner) Sign(buf []byte) (Signature, error) {
	digest := sha256.Sum256(buf)
	sig := ecdsa.Sign(s.priv, digest[:])
	return Signature(sig.Serialize()), nil
}

// PublicKey returns the node's public key.
func (s *LocalSigner) PublicKey() PublicKey {
	return s.pub
}

// PrivateKeyBytes returns the raw 32-byte private key, for callers (e.g.
// cmd/funderd) that persist it to disk across restarts. Never logged or
// sent anywhere by the identity package itself.
func (s *LocalSigner) PrivateKeyBytes() []byte {
	return s.priv.Serialize()
}

// Verify checks that sig is a valid signature by pub over buf.
func Verify(pub PublicKey, buf []byte, sig Signature) bool {
	pubKey, err := btcec.ParsePubKey(pub[:])
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(buf)
	return parsed.Verify(digest[:], pubKey)
}

// RandNonce returns a fresh 16-byte random nonce, used by MoveToken's
// rand_nonce field (spec.md §3) to make the signed buffer unique per
// message even when replaying the same operations.
func RandNonce() ([16]byte, error) {
	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, errors.Wrap(err, 0)
	}
	return nonce, nil
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}
