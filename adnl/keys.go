package adnl

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"io"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/curve25519"
)

// addressTypeTag identifies the Ed25519 key family. It is the only
// identity scheme this package supports.
var addressTypeTag = [4]byte{0xc6, 0xb4, 0x13, 0x48}

// PublicKey is a 32-byte Ed25519 compressed-edwards point, carried on the
// wire verbatim as the handshake's sender field.
type PublicKey [32]byte

// Address is the 32-byte ADNL address derived from a PublicKey.
type Address [32]byte

// Address derives the ADNL address for pub: SHA256(type_tag ‖ pub).
func (pub PublicKey) Address() Address {
	h := sha256.New()
	h.Write(addressTypeTag[:])
	h.Write(pub[:])
	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// PrivateKey is an Ed25519 scalar held locally. It derives its PublicKey
// and computes X25519 shared secrets against a peer's PublicKey.
type PrivateKey struct {
	seed [32]byte
	pub  PublicKey
}

// NewPrivateKeyFromSeed builds a PrivateKey from a raw 32-byte Ed25519
// seed, the form private keys are usually persisted in.
func NewPrivateKeyFromSeed(seed [32]byte) PrivateKey {
	pub := ed25519.NewKeyFromSeed(seed[:]).Public().(ed25519.PublicKey)
	var pk PublicKey
	copy(pk[:], pub)
	return PrivateKey{seed: seed, pub: pk}
}

// GenerateKey produces a fresh Ed25519 key pair using rnd as entropy
// source.
func GenerateKey(rnd io.Reader) (PublicKey, PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rnd)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	var pk PublicKey
	copy(pk[:], pub)
	var seed [32]byte
	copy(seed[:], priv.Seed())
	return pk, PrivateKey{seed: seed, pub: pk}, nil
}

// Public returns the PublicKey corresponding to priv.
func (priv PrivateKey) Public() PublicKey {
	return priv.pub
}

// x25519Scalar derives the Montgomery-curve scalar from the Ed25519 seed
// per RFC 8032 §5.1.5: SHA-512 the seed, clamp the low half.
func (priv PrivateKey) x25519Scalar() [32]byte {
	h := sha512.Sum512(priv.seed[:])
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	var scalar [32]byte
	copy(scalar[:], h[:32])
	return scalar
}

// montgomery projects an Ed25519 public key onto its Montgomery form,
// validating that it decodes to a point on the curve.
func montgomery(pub PublicKey) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(pub[:])
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return p.BytesMontgomery(), nil
}

// SharedSecret computes the X25519 Diffie-Hellman output between priv and
// peer, projecting both Ed25519 keys to Montgomery form first. The result
// is returned as-is, with no further hashing, per the handshake's
// bootstrap-cipher contract.
func (priv PrivateKey) SharedSecret(peer PublicKey) ([32]byte, error) {
	var secret [32]byte
	peerMont, err := montgomery(peer)
	if err != nil {
		return secret, err
	}
	scalar := priv.x25519Scalar()
	shared, err := curve25519.X25519(scalar[:], peerMont)
	if err != nil {
		return secret, ErrInvalidPublicKey
	}
	var zero [32]byte
	if subtle.ConstantTimeCompare(shared, zero[:]) == 1 {
		return secret, ErrInvalidPublicKey
	}
	copy(secret[:], shared)
	return secret, nil
}
