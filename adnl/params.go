package adnl

import "io"

// SessionParametersSize is the fixed size of the serialized session
// parameters blob carried (masked) inside the handshake packet.
const SessionParametersSize = 160

// SessionParameters seeds the bidirectional AES-CTR session. Generated
// randomly by the initiator; the two peers swap rx/tx role on install
// (§ role symmetry), there is no further cryptographic mixing.
type SessionParameters struct {
	RxKey   [32]byte
	TxKey   [32]byte
	RxNonce [16]byte
	TxNonce [16]byte
	Padding [64]byte
}

// Marshal serializes p into its 160-byte wire layout.
func (p SessionParameters) Marshal() [SessionParametersSize]byte {
	var raw [SessionParametersSize]byte
	copy(raw[0:32], p.RxKey[:])
	copy(raw[32:64], p.TxKey[:])
	copy(raw[64:80], p.RxNonce[:])
	copy(raw[80:96], p.TxNonce[:])
	copy(raw[96:160], p.Padding[:])
	return raw
}

// UnmarshalSessionParameters parses a 160-byte blob into SessionParameters.
// The padding bytes are opaque: callers must not assume they are zero.
func UnmarshalSessionParameters(raw [SessionParametersSize]byte) SessionParameters {
	var p SessionParameters
	copy(p.RxKey[:], raw[0:32])
	copy(p.TxKey[:], raw[32:64])
	copy(p.RxNonce[:], raw[64:80])
	copy(p.TxNonce[:], raw[80:96])
	copy(p.Padding[:], raw[96:160])
	return p
}

// RandomSessionParameters draws a full set of session parameters,
// including padding, from rnd. The padding is never zeroed: a zeroed
// padding would weaken the commitment hash other ADNL peers expect to
// look random.
func RandomSessionParameters(rnd io.Reader) (SessionParameters, error) {
	var raw [SessionParametersSize]byte
	if _, err := io.ReadFull(rnd, raw[:]); err != nil {
		return SessionParameters{}, err
	}
	return UnmarshalSessionParameters(raw), nil
}
