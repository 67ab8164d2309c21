// Package adnl implements the ADNL handshake and datagram codec: the
// one-shot key-establishment exchange and the bidirectional stream-cipher
// framing used for every message afterwards.
package adnl

import (
	"errors"
	"fmt"
)

// Error taxonomy. IoError has no sentinel of its own: callers distinguish
// it with errors.Is against the wrapped cause, the way ordinary Go I/O
// errors are handled.
var (
	ErrEndOfStream      = errors.New("adnl: end of stream")
	ErrTooShortPacket   = errors.New("adnl: packet shorter than minimum frame length")
	ErrTooLongPacket    = errors.New("adnl: packet longer than maximum frame length")
	ErrIntegrity        = errors.New("adnl: integrity check failed")
	ErrInvalidPublicKey = errors.New("adnl: public key does not decode to a valid point")
)

// UnknownAddressError is returned by HandleHandshake when the resolver has
// no private key for the handshake's receiver address, or when a resolved
// key's own address does not match it.
type UnknownAddressError struct {
	Address Address
}

func (e *UnknownAddressError) Error() string {
	return fmt.Sprintf("adnl: unknown address %x", e.Address)
}
