package adnl

import "io"

// Builder assembles a Handshake from session parameters (random or
// supplied for testing) and an ECDH secret (freshly computed, or supplied
// for testing). It performs no I/O.
type Builder struct {
	params SessionParameters
}

// WithRandomParams draws fresh session parameters from rnd, the normal
// production path.
func WithRandomParams(rnd io.Reader) (Builder, error) {
	p, err := RandomSessionParameters(rnd)
	if err != nil {
		return Builder{}, err
	}
	return Builder{params: p}, nil
}

// WithStaticParams uses the given session parameters verbatim, for
// reproducing known test vectors.
func WithStaticParams(params SessionParameters) Builder {
	return Builder{params: params}
}

// UseStaticECDH builds a Handshake from an already-agreed ECDH secret,
// skipping key agreement entirely. Used by tests pinned to a known
// shared secret.
func (b Builder) UseStaticECDH(senderPublic PublicKey, receiverAddress Address, secret [32]byte) Handshake {
	return NewHandshake(receiverAddress, senderPublic, secret, b.params)
}

// PerformECDH derives the receiver address from receiverPublic and
// computes the ECDH secret between senderPrivate and receiverPublic,
// then builds the Handshake.
func (b Builder) PerformECDH(senderPrivate PrivateKey, receiverPublic PublicKey) (Handshake, error) {
	secret, err := senderPrivate.SharedSecret(receiverPublic)
	if err != nil {
		return Handshake{}, err
	}
	return NewHandshake(receiverPublic.Address(), senderPrivate.Public(), secret, b.params), nil
}
