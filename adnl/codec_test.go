package adnl

import (
	"bytes"
	"testing"
)

func swappedParams(t *testing.T, p SessionParameters) SessionParameters {
	t.Helper()
	return SessionParameters{
		RxKey:   p.TxKey,
		TxKey:   p.RxKey,
		RxNonce: p.TxNonce,
		TxNonce: p.RxNonce,
		Padding: p.Padding,
	}
}

func runSendVector(t *testing.T, paramsHex, bufferHex, expectedPacketHex string) {
	t.Helper()

	params := UnmarshalSessionParameters(asArray160(t, mustHex(t, paramsHex)))
	buffer := mustHex(t, bufferHex)
	expected := mustHex(t, expectedPacketHex)

	codec, err := NewClientCodec(params)
	if err != nil {
		t.Fatalf("NewClientCodec: %v", err)
	}
	packet, err := codec.Encode(buffer)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if !bytes.Equal(packet[:4], expected[:4]) {
		t.Fatalf("length prefix mismatch: got %x want %x", packet[:4], expected[:4])
	}
	if !bytes.Equal(packet[36:len(packet)-32], expected[36:len(expected)-32]) {
		t.Fatalf("payload ciphertext mismatch:\n got %x\nwant %x", packet[36:len(packet)-32], expected[36:len(expected)-32])
	}

	// Decoding with rx/tx swapped (the responder's view of the same
	// session) must recover the original plaintext.
	other, err := NewClientCodec(swappedParams(t, params))
	if err != nil {
		t.Fatalf("NewClientCodec(swapped): %v", err)
	}
	decoded, err := other.Feed(packet)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected exactly one decoded frame, got %d", len(decoded))
	}
	if !bytes.Equal(decoded[0], buffer) {
		t.Fatalf("round-trip mismatch:\n got %x\nwant %x", decoded[0], buffer)
	}
}

func TestSendVector1(t *testing.T) {
	runSendVector(t,
		"b3d529e34b839a521518447b68343aebaae9314ac95aaacfdb687a2163d1a98638db306b63409ef7bc906b4c9dc115488cf90dfa964f520542c69e1a4a495edf9ae9ee72023203c8b266d552f251e8d724929733428c8e276ab3bd6291367336a6ab8dc3d36243419bd0b742f76691a5dec14edbd50f7c1b58ec961ae45be58cbf6623f3ec9705bd5d227761ec79cee377e2566ff668f863552bddfd6ff3a16b",
		"7af98bb471ff48e9b263959b17a04faae4a23501380d2aa932b09eac6f9846fcbae9bbcb0cdf068c7904345aad16000000000000",
		"250d70d08526791bc2b6278ded7bf2b051afb441b309dda06f76e4419d7c31d4d5baafc4ff71e0ebabe246d4ea19e3e579bd15739c8fc916feaf46ea7a6bc562ed1cf87c9bf4220eb037b9a0b58f663f0474b8a8b18fa24db515e41e4b02e509d8ef261a27ba894cbbecc92e59fc44bf5ff7c8281cb5e900",
	)
}

func TestSendVector2(t *testing.T) {
	runSendVector(t,
		"7e3c66de7c64d4bee4368e69560101991db4b084430a336cffe676c9ac0a795d8c98367309422a8e927e62ed657ba3eaeeb6acd3bbe5564057dfd1d60609a25a48963cbb7d14acf4fc83ec59254673bc85be22d04e80e7b83c641d37cae6e1d82a400bf159490bbc0048e69234ad89e999d792eefdaa56734202546d9188706e95e1272267206a8e7ee1f7c077f76bd26e494972e34d72e257bf20364dbf39b0",
		"7af98bb47bcae111ea0e56457826b1aec7f0f59b9b6579678b3db3839d17b63eb60174f20cdf068c7904345aad16000000000000",
		"24c709a0f676750ddaeafc8564d84546bfc831af27fb66716de382a347a1c32adef1a27e597c8a07605a09087fff32511d314970cad3983baefff01e7ee51bb672b17f7914a6d3f229a13acb14cdc14d98beae8a1e96510756726913541f558c2ffac63ed6cb076d0e888c3c0bb014d9f229c2a3f62e0847",
	)
}

func runRecvVector(t *testing.T, paramsHex string, frames [][2]string) {
	t.Helper()

	params := UnmarshalSessionParameters(asArray160(t, mustHex(t, paramsHex)))
	codec, err := NewClientCodec(params)
	if err != nil {
		t.Fatalf("NewClientCodec: %v", err)
	}

	for i, frame := range frames {
		encrypted := mustHex(t, frame[0])
		expected := mustHex(t, frame[1])

		decoded, err := codec.Feed(encrypted)
		if err != nil {
			t.Fatalf("frame %d: Feed: %v", i, err)
		}
		if len(decoded) != 1 {
			t.Fatalf("frame %d: expected exactly one decoded frame, got %d", i, len(decoded))
		}
		if !bytes.Equal(decoded[0], expected) {
			t.Fatalf("frame %d: mismatch:\n got %x\nwant %x", i, decoded[0], expected)
		}
	}
}

func TestRecvVector1(t *testing.T) {
	runRecvVector(t,
		"b3d529e34b839a521518447b68343aebaae9314ac95aaacfdb687a2163d1a98638db306b63409ef7bc906b4c9dc115488cf90dfa964f520542c69e1a4a495edf9ae9ee72023203c8b266d552f251e8d724929733428c8e276ab3bd6291367336a6ab8dc3d36243419bd0b742f76691a5dec14edbd50f7c1b58ec961ae45be58cbf6623f3ec9705bd5d227761ec79cee377e2566ff668f863552bddfd6ff3a16b",
		[][2]string{
			{
				"81e95e433c87c9ad2a716637b3a12644fbfb12dbd02996abc40ed2beb352483d6ecf9e2ad181a5abde4d4146ca3a8524739d3acebb2d7599cc6b81967692a62118997e16",
				"",
			},
			{
				"4b72a32bf31894cce9ceffd2dd97176e502946524e45e62689bd8c5d31ad53603c5fd3b402771f707cd2747747fad9df52e6c23ceec9fa2ee5b0f68b61c33c7790db03d1c593798a29d716505cea75acdf0e031c25447c55c4d29d32caab29bd5a0787644843bafc04160c92140aab0ecc990927",
				"1684ac0f71ff48e9b263959b17a04faae4a23501380d2aa932b09eac6f9846fcbae9bbcb080d0053e9a3ac3062000000",
			},
		},
	)
}

func TestRecvVector2(t *testing.T) {
	runRecvVector(t,
		"7e3c66de7c64d4bee4368e69560101991db4b084430a336cffe676c9ac0a795d8c98367309422a8e927e62ed657ba3eaeeb6acd3bbe5564057dfd1d60609a25a48963cbb7d14acf4fc83ec59254673bc85be22d04e80e7b83c641d37cae6e1d82a400bf159490bbc0048e69234ad89e999d792eefdaa56734202546d9188706e95e1272267206a8e7ee1f7c077f76bd26e494972e34d72e257bf20364dbf39b0",
		[][2]string{
			{
				"b75dcf27582beb4031d6d3700c9b7925bf84a78f2bd16b186484d36427a8824ac86e27cea81eb5bcbac447a37269845c65be51babd11c80627f81b4247f84df16d05c4f1",
				"",
			},
			{
				"77ebea5a6e6c8758e7703d889abad16e7e3c4e0c10c4e81ca10d0d9abddabb6f008905133a070ff825ad3f4b0ae969e04dbd8b280864d3d2175f3bc7cf3deb31de5497fa43997d8e2acafb9a31de2a22ecb279b5854c00791216e39c2e65863539d82716fc020e9647b2dd99d0f14e4f553b645f",
				"1684ac0f7bcae111ea0e56457826b1aec7f0f59b9b6579678b3db3839d17b63eb60174f2080d0053e90bb03062000000",
			},
		},
	)
}

func TestCodecRoundTripChunked(t *testing.T) {
	params := SessionParameters{}
	for i := range params.RxKey {
		params.RxKey[i] = byte(i)
		params.TxKey[i] = byte(i + 1)
	}
	for i := range params.RxNonce {
		params.RxNonce[i] = byte(2 * i)
		params.TxNonce[i] = byte(2*i + 1)
	}

	client, err := NewClientCodec(params)
	if err != nil {
		t.Fatalf("NewClientCodec: %v", err)
	}
	server, err := NewServerCodec(params)
	if err != nil {
		t.Fatalf("NewServerCodec: %v", err)
	}

	payloads := [][]byte{
		[]byte(""),
		[]byte("hello"),
		bytes.Repeat([]byte{0xab}, 5000),
	}

	var wire []byte
	for _, p := range payloads {
		frame, err := client.Encode(p)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		wire = append(wire, frame...)
	}

	var got [][]byte
	for len(wire) > 0 {
		n := 1
		if len(wire) < n {
			n = len(wire)
		}
		chunk := wire[:n]
		wire = wire[n:]
		decoded, err := server.Feed(chunk)
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
		got = append(got, decoded...)
	}

	if len(got) != len(payloads) {
		t.Fatalf("expected %d frames, got %d", len(payloads), len(got))
	}
	for i := range payloads {
		if !bytes.Equal(got[i], payloads[i]) {
			t.Fatalf("frame %d mismatch: got %x want %x", i, got[i], payloads[i])
		}
	}
}

func TestCodecRejectsCorruptedIntegrity(t *testing.T) {
	params := SessionParameters{}
	client, err := NewClientCodec(params)
	if err != nil {
		t.Fatalf("NewClientCodec: %v", err)
	}
	server, err := NewServerCodec(params)
	if err != nil {
		t.Fatalf("NewServerCodec: %v", err)
	}

	frame, err := client.Encode([]byte("payload"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	frame[len(frame)-1] ^= 0xff

	if _, err := server.Feed(frame); err != ErrIntegrity {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}

	// the session is poisoned: further feeds keep failing
	if _, err := server.Feed([]byte{0x00}); err != ErrIntegrity {
		t.Fatalf("expected codec to stay poisoned, got %v", err)
	}
}

func TestCodecRejectsTooLongPayload(t *testing.T) {
	params := SessionParameters{}
	client, err := NewClientCodec(params)
	if err != nil {
		t.Fatalf("NewClientCodec: %v", err)
	}
	_, err = client.Encode(make([]byte, maxFrameLength))
	if err != ErrTooLongPacket {
		t.Fatalf("expected ErrTooLongPacket, got %v", err)
	}
}
