package adnl

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// readChunkSize bounds how much ciphertext Peer.Next reads from the
// channel per call, independent of how large the frame being assembled
// turns out to be.
const readChunkSize = 8192

// Peer orchestrates a handshake and a Codec over a duplex byte channel,
// presenting a message-oriented send/receive API. A Peer exclusively
// owns its channel and its two CipherStates; concurrent Send calls are
// serialized internally, and Send is safe to use concurrently with Next.
type Peer struct {
	channel io.ReadWriter

	codec *Codec

	writeMu sync.Mutex

	pending [][]byte
	readErr error
}

// Connect opens the initiator side of a handshake over channel, using a
// freshly generated local identity, and blocks until the responder's
// confirmation frame has been received. The returned Peer is ready for
// Send/Next.
func Connect(channel io.ReadWriter, remotePublic PublicKey) (*Peer, error) {
	_, local, err := GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("adnl: generate local key: %w", err)
	}
	return ConnectWithKey(channel, local, remotePublic)
}

// ConnectWithKey is Connect with a caller-supplied local identity.
func ConnectWithKey(channel io.ReadWriter, local PrivateKey, remotePublic PublicKey) (*Peer, error) {
	builder, err := WithRandomParams(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("adnl: random session parameters: %w", err)
	}
	handshake, err := builder.PerformECDH(local, remotePublic)
	if err != nil {
		return nil, err
	}
	packet, err := handshake.ToBytes()
	if err != nil {
		return nil, err
	}
	if _, err := channel.Write(packet[:]); err != nil {
		return nil, fmt.Errorf("adnl: write handshake: %w", err)
	}

	codec, err := NewClientCodec(handshake.Params)
	if err != nil {
		return nil, err
	}
	peer := &Peer{channel: channel, codec: codec}

	// The responder's first frame has an empty payload and exists only to
	// prove it derived the same CipherStates; a successful decode here is
	// the confirmation itself.
	if _, err := peer.Next(); err != nil {
		return nil, err
	}
	return peer, nil
}

// HandleHandshake consumes a channel on which a peer is about to send a
// handshake, resolving the local identity to use via resolve. Returns a
// Peer ready for Send/Next once the confirmation frame has been sent.
func HandleHandshake(channel io.ReadWriter, resolve KeyResolver) (*Peer, error) {
	var packet [HandshakePacketSize]byte
	if _, err := io.ReadFull(channel, packet[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrEndOfStream
		}
		return nil, fmt.Errorf("adnl: read handshake: %w", err)
	}

	decoded, err := DecryptHandshake(packet, resolve)
	if err != nil {
		return nil, err
	}

	codec, err := NewServerCodec(decoded.Params)
	if err != nil {
		return nil, err
	}
	peer := &Peer{channel: channel, codec: codec}

	if err := peer.Send(nil); err != nil {
		return nil, fmt.Errorf("adnl: send handshake confirmation: %w", err)
	}
	return peer, nil
}

// Send writes one datagram. payload is treated as an opaque byte
// sequence; an empty or nil payload is legal (used for the handshake
// confirmation). Concurrent Send calls are serialized internally, but
// callers still own the invariant that a cancelled Send between keystream
// advance and channel write leaves the session unusable.
func (p *Peer) Send(payload []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	frame, err := p.codec.Encode(payload)
	if err != nil {
		return err
	}
	if _, err := p.channel.Write(frame); err != nil {
		return fmt.Errorf("adnl: write frame: %w", err)
	}
	return nil
}

// Next yields the next decoded payload in send order, or an error.
// ErrEndOfStream means the channel reached EOF, whether between frames or
// in the middle of one;
// ErrIntegrity or a protocol-length error means the session is poisoned
// and must not be used again. Once Next has returned an error, every
// subsequent call returns the same error.
func (p *Peer) Next() ([]byte, error) {
	for len(p.pending) == 0 {
		if p.readErr != nil {
			return nil, p.readErr
		}

		buf := make([]byte, readChunkSize)
		n, err := p.channel.Read(buf)
		if n > 0 {
			payloads, decErr := p.codec.Feed(buf[:n])
			p.pending = append(p.pending, payloads...)
			if decErr != nil {
				p.readErr = decErr
			}
		}
		if err != nil {
			if p.readErr == nil {
				if err == io.EOF {
					p.readErr = ErrEndOfStream
				} else {
					p.readErr = fmt.Errorf("adnl: read: %w", err)
				}
			}
		}
		if len(p.pending) == 0 && p.readErr != nil {
			return nil, p.readErr
		}
	}

	out := p.pending[0]
	p.pending = p.pending[1:]
	return out, nil
}
