package adnl

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
)

// HandshakePacketSize is the fixed size of a handshake packet on the wire.
const HandshakePacketSize = 256

// Handshake is the initiator's side of a not-yet-sent handshake: a
// receiver address, the sender's public key, an already-agreed ECDH
// secret, and the session parameters to install once the packet is
// accepted.
type Handshake struct {
	Receiver Address
	Sender   PublicKey
	Secret   [32]byte
	Params   SessionParameters
}

// NewHandshake assembles a Handshake from its parts. Most callers build
// one through Builder instead.
func NewHandshake(receiver Address, sender PublicKey, secret [32]byte, params SessionParameters) Handshake {
	return Handshake{Receiver: receiver, Sender: sender, Secret: secret, Params: params}
}

// bootstrapCipher derives the single-use AES-256-CTR stream that masks
// the session parameters field of a handshake packet, from the ECDH
// secret and the SHA-256 commitment to the plaintext parameters.
func bootstrapCipher(secret, hash [32]byte) (cipher.Stream, error) {
	var key [32]byte
	copy(key[:16], secret[:16])
	copy(key[16:], hash[16:32])
	var iv [16]byte
	copy(iv[:4], hash[:4])
	copy(iv[4:], secret[20:32])
	return newCTRStream(key[:], iv[:])
}

func newCTRStream(key, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, iv), nil
}

// ToBytes builds the 256-byte handshake packet: receiver address ‖
// sender public key ‖ commitment hash ‖ bootstrap-cipher-masked session
// parameters.
func (h Handshake) ToBytes() ([HandshakePacketSize]byte, error) {
	var packet [HandshakePacketSize]byte
	copy(packet[0:32], h.Receiver[:])
	copy(packet[32:64], h.Sender[:])

	raw := h.Params.Marshal()
	hash := sha256.Sum256(raw[:])

	stream, err := bootstrapCipher(h.Secret, hash)
	if err != nil {
		return packet, err
	}
	stream.XORKeyStream(raw[:], raw[:])

	copy(packet[64:96], hash[:])
	copy(packet[96:256], raw[:])
	return packet, nil
}

// KeyResolver looks up the private key for a handshake's receiver
// address, letting one listener host several ADNL identities. The second
// return value is false when no key is held for that address.
type KeyResolver func(Address) (PrivateKey, bool)

// DecodedHandshake is the result of successfully decrypting an incoming
// handshake packet.
type DecodedHandshake struct {
	Receiver   Address
	Sender     PublicKey
	Params     SessionParameters
	PrivateKey PrivateKey
}

// DecryptHandshake parses and decrypts a 256-byte handshake packet as a
// responder. It resolves the local identity from the packet's cleartext
// receiver address, verifies that identity actually owns that address
// (defeating a resolver bug that maps to an unrelated key), computes the
// ECDH secret, and checks the commitment hash against the decrypted
// session parameters.
func DecryptHandshake(packet [HandshakePacketSize]byte, resolve KeyResolver) (*DecodedHandshake, error) {
	var receiver Address
	copy(receiver[:], packet[0:32])

	var senderBytes [32]byte
	copy(senderBytes[:], packet[32:64])
	sender := PublicKey(senderBytes)

	priv, ok := resolve(receiver)
	if !ok {
		return nil, &UnknownAddressError{Address: receiver}
	}
	if priv.Public().Address() != receiver {
		return nil, &UnknownAddressError{Address: receiver}
	}

	secret, err := priv.SharedSecret(sender)
	if err != nil {
		return nil, err
	}

	var hash [32]byte
	copy(hash[:], packet[64:96])

	stream, err := bootstrapCipher(secret, hash)
	if err != nil {
		return nil, err
	}

	var raw [SessionParametersSize]byte
	copy(raw[:], packet[96:256])
	stream.XORKeyStream(raw[:], raw[:])

	if sha256.Sum256(raw[:]) != hash {
		return nil, ErrIntegrity
	}

	return &DecodedHandshake{
		Receiver:   receiver,
		Sender:     sender,
		Params:     UnmarshalSessionParameters(raw),
		PrivateKey: priv,
	}, nil
}
