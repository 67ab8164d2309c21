package adnl

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
)

const (
	minFrameLength = 64
	maxFrameLength = 1 << 24
)

// Codec holds the two independent AES-256-CTR CipherStates for one ADNL
// session: tx for outgoing frames, rx (inside the decoder) for incoming
// ones. Role assignment (client vs server) is the only difference between
// the two ends; both run the identical state machine afterwards.
type Codec struct {
	tx      cipher.Stream
	decoder *frameDecoder
}

func newCodec(rx, tx cipher.Stream) *Codec {
	return &Codec{tx: tx, decoder: newFrameDecoder(rx)}
}

// NewClientCodec builds the codec for the handshake initiator: it
// transmits under tx_key/tx_nonce and receives under rx_key/rx_nonce, as
// named in the session parameters.
func NewClientCodec(p SessionParameters) (*Codec, error) {
	rx, err := newCTRStream(p.RxKey[:], p.RxNonce[:])
	if err != nil {
		return nil, err
	}
	tx, err := newCTRStream(p.TxKey[:], p.TxNonce[:])
	if err != nil {
		return nil, err
	}
	return newCodec(rx, tx), nil
}

// NewServerCodec builds the codec for the handshake responder, with the
// rx/tx role swapped relative to NewClientCodec: the responder transmits
// under what the initiator calls its rx_key/rx_nonce, and receives under
// what the initiator calls its tx_key/tx_nonce.
func NewServerCodec(p SessionParameters) (*Codec, error) {
	rx, err := newCTRStream(p.TxKey[:], p.TxNonce[:])
	if err != nil {
		return nil, err
	}
	tx, err := newCTRStream(p.RxKey[:], p.RxNonce[:])
	if err != nil {
		return nil, err
	}
	return newCodec(rx, tx), nil
}

// Encode builds the ciphertext frame for payload: length ‖ random nonce
// ‖ payload ‖ SHA256(nonce ‖ payload), the whole thing then encrypted
// under tx. Encode consumes no keystream at all if payload is rejected
// as too long.
func (c *Codec) Encode(payload []byte) ([]byte, error) {
	if len(payload) > maxFrameLength-minFrameLength {
		return nil, ErrTooLongPacket
	}
	length := len(payload) + minFrameLength
	frame := make([]byte, 4+length)
	binary.LittleEndian.PutUint32(frame[:4], uint32(length))

	nonce := frame[4:36]
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	copy(frame[36:36+len(payload)], payload)

	sum := sha256.Sum256(frame[4 : 36+len(payload)])
	copy(frame[36+len(payload):], sum[:])

	c.tx.XORKeyStream(frame, frame)
	return frame, nil
}

// Feed appends newly arrived ciphertext to the decoder and returns every
// payload that became fully decodable as a result. It may return zero,
// one, or several payloads from a single call.
func (c *Codec) Feed(chunk []byte) ([][]byte, error) {
	return c.decoder.feed(chunk)
}

// frameDecoder implements the resumable AwaitingLength / AwaitingBody
// state machine: it buffers raw ciphertext and decrypts in place only
// once enough of it has arrived, so that a partial read never rewinds
// the rx keystream.
type frameDecoder struct {
	rx       cipher.Stream
	buf      []byte
	length   int // -1 while awaiting the length prefix
	poisoned error
}

func newFrameDecoder(rx cipher.Stream) *frameDecoder {
	return &frameDecoder{rx: rx, length: -1}
}

func (d *frameDecoder) feed(chunk []byte) ([][]byte, error) {
	if d.poisoned != nil {
		return nil, d.poisoned
	}
	d.buf = append(d.buf, chunk...)

	var out [][]byte
	for {
		if d.length < 0 {
			if len(d.buf) < 4 {
				break
			}
			d.rx.XORKeyStream(d.buf[:4], d.buf[:4])
			length := int(binary.LittleEndian.Uint32(d.buf[:4]))
			d.buf = d.buf[4:]
			if length < minFrameLength {
				d.poisoned = ErrTooShortPacket
				return out, d.poisoned
			}
			if length > maxFrameLength {
				d.poisoned = ErrTooLongPacket
				return out, d.poisoned
			}
			d.length = length
		}

		if len(d.buf) < d.length {
			break
		}

		frame := d.buf[:d.length]
		d.rx.XORKeyStream(frame, frame)

		nonce := frame[:32]
		payload := frame[32 : d.length-32]
		given := frame[d.length-32:]

		h := sha256.New()
		h.Write(nonce)
		h.Write(payload)
		if !bytes.Equal(h.Sum(nil), given) {
			d.poisoned = ErrIntegrity
			return out, d.poisoned
		}

		decoded := make([]byte, len(payload))
		copy(decoded, payload)
		out = append(out, decoded)

		d.buf = d.buf[d.length:]
		d.length = -1
	}
	return out, nil
}
