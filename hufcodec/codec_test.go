package hufcodec

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/lanhtutoicao123/huffcodec/huffman"
)

func TestRoundtrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"single byte", []byte{0x41}},
		{"two symbols", []byte("abababab")},
		{"ascii text", []byte("hello huffman coding")},
		{"english sentence", []byte("The quick brown fox jumps over the lazy dog.")},
		{"binary", []byte{0x00, 0xFF, 0x10, 0xFF, 0x00, 0x80}},
		{"all byte values", allByteValues()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Encode(tc.data)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			decoded, err := Decode(res.Artifact)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(decoded, tc.data) {
				t.Errorf("Roundtrip mismatch.\nOriginal: %q\nDecoded:  %q", tc.data, decoded)
			}
		})
	}
}

func TestRoundtripRandomData(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))

	for trial := 0; trial < 100; trial++ {
		alphabet := 1 + rng.Intn(64)
		data := make([]byte, 1+rng.Intn(2000))
		for i := range data {
			data[i] = byte(rng.Intn(alphabet))
		}

		res, err := Encode(data)
		if err != nil {
			t.Fatalf("Trial %d: Encode failed: %v", trial, err)
		}
		decoded, err := Decode(res.Artifact)
		if err != nil {
			t.Fatalf("Trial %d: Decode failed: %v", trial, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Errorf("Trial %d: roundtrip mismatch", trial)
		}
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	res, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	a := res.Artifact
	if a.OrigLen != 0 || a.BitLen != 0 || len(a.Packed) != 0 || len(a.Codes) != 0 {
		t.Errorf("Empty input artifact = %+v, want all-empty fields", a)
	}

	decoded, err := Decode(a)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("Decoded %d bytes from an empty artifact, want 0", len(decoded))
	}
}

func TestEncodeSingleSymbolInput(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 10)

	res, err := Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	a := res.Artifact
	if len(a.Codes) != 1 {
		t.Fatalf("Expected 1 code, got %d", len(a.Codes))
	}
	if code := a.Codes[0x41]; code.Len != 1 {
		t.Errorf("Code for 0x41 is %d bits, want 1", code.Len)
	}
	if a.BitLen != 10 {
		t.Errorf("BitLen = %d, want 10", a.BitLen)
	}

	decoded, err := Decode(a)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("Roundtrip mismatch.\nOriginal: %q\nDecoded:  %q", data, decoded)
	}
}

func TestEncodeResultModel(t *testing.T) {
	data := []byte("abracadabra")
	res, err := Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if res.Frequencies['a'] != 5 {
		t.Errorf("Frequency of 'a' = %d, want 5", res.Frequencies['a'])
	}
	if p := res.Probabilities['a']; math.Abs(p-5.0/11.0) > 1e-12 {
		t.Errorf("Probability of 'a' = %v, want %v", p, 5.0/11.0)
	}

	n := len(res.Frequencies)
	if len(res.Trace.Steps) != n-1 {
		t.Errorf("Trace has %d steps, want %d", len(res.Trace.Steps), n-1)
	}
	if len(res.Graph.Nodes) != 2*n-1 {
		t.Errorf("Graph has %d nodes, want %d", len(res.Graph.Nodes), 2*n-1)
	}
	if res.Graph.Nodes[0].Weight != uint64(len(data)) {
		t.Errorf("Root weight %d, want input length %d", res.Graph.Nodes[0].Weight, len(data))
	}
}

func TestCodesPrefixFree(t *testing.T) {
	res, err := Encode([]byte("no generated code may be a prefix of another generated code"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	rendered := make(map[huffman.Symbol]string, len(res.Artifact.Codes))
	for sym, code := range res.Artifact.Codes {
		rendered[sym] = code.String()
	}
	for a, ca := range rendered {
		for b, cb := range rendered {
			if a != b && strings.HasPrefix(cb, ca) {
				t.Errorf("Code %q of %#02x is a prefix of %q of %#02x", ca, a, cb, b)
			}
		}
	}
}

func TestChecksumBitFlipSensitivity(t *testing.T) {
	data := []byte("integrity matters: flip any bit and the checksum must notice")
	res, err := Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for bit := uint64(0); bit < res.Artifact.BitLen; bit++ {
		tampered := *res.Artifact
		tampered.Packed = append([]byte(nil), res.Artifact.Packed...)
		tampered.Packed[bit/8] ^= 1 << (7 - bit%8)

		decoded, err := Decode(&tampered)
		if err == nil {
			if bytes.Equal(decoded, data) {
				t.Errorf("Bit %d: flipped stream decoded back to the original data", bit)
			}
			continue
		}
		if !errors.Is(err, ErrIntegrityFailure) && !errors.Is(err, ErrMalformedBitstream) {
			t.Errorf("Bit %d: unexpected error class: %v", bit, err)
		}
	}
}

func TestDecodeChecksumMismatch(t *testing.T) {
	res, err := Encode([]byte("checksum guarded"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tampered := *res.Artifact
	tampered.Checksum ^= 0xDEADBEEF
	if _, err := Decode(&tampered); !errors.Is(err, ErrIntegrityFailure) {
		t.Errorf("Decode returned %v, want ErrIntegrityFailure", err)
	}
}

func TestDecodeTruncatedBitstream(t *testing.T) {
	res, err := Encode([]byte("aaaaaaaaabbbbbcccz"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Drop the final packed byte while keeping the declared bit length.
	tampered := *res.Artifact
	tampered.Packed = tampered.Packed[:len(tampered.Packed)-1]

	if _, err := Decode(&tampered); !errors.Is(err, ErrMalformedBitstream) {
		t.Errorf("Decode returned %v, want ErrMalformedBitstream", err)
	}
}

func TestDecodeBitstreamEndsInsideCode(t *testing.T) {
	// 'z' occurs once, so its code is the longest and sits last in the
	// stream; dropping one bit leaves the walk mid-code.
	res, err := Encode([]byte("aaaaaaaaabbbbbcccz"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tampered := *res.Artifact
	tampered.BitLen--

	if _, err := Decode(&tampered); !errors.Is(err, ErrMalformedBitstream) {
		t.Errorf("Decode returned %v, want ErrMalformedBitstream", err)
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	res, err := Encode([]byte("every byte accounted for"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tampered := *res.Artifact
	tampered.OrigLen++
	if _, err := Decode(&tampered); !errors.Is(err, ErrMalformedBitstream) {
		t.Errorf("Decode returned %v, want ErrMalformedBitstream", err)
	}
}

func TestDecodeInvalidCodeTable(t *testing.T) {
	testCases := []struct {
		name     string
		artifact Artifact
	}{
		{
			"no codes for bits",
			Artifact{OrigLen: 1, BitLen: 2, Packed: []byte{0x80}, Codes: huffman.CodeTable{}},
		},
		{
			"zero length code",
			Artifact{OrigLen: 1, BitLen: 2, Packed: []byte{0x80}, Codes: huffman.CodeTable{
				'a': {Bits: 0, Len: 0},
			}},
		},
		{
			"prefix violation",
			Artifact{OrigLen: 2, BitLen: 3, Packed: []byte{0x40}, Codes: huffman.CodeTable{
				'a': {Bits: 0b0, Len: 1},
				'b': {Bits: 0b01, Len: 2},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(&tc.artifact); !errors.Is(err, ErrInvalidCodeTable) {
				t.Errorf("Decode returned %v, want ErrInvalidCodeTable", err)
			}
		})
	}
}

func TestDecodeDeadEndBranch(t *testing.T) {
	// A single-code table only populates the 0 branch; a 1 bit has
	// nowhere to go.
	a := Artifact{
		OrigLen: 2,
		BitLen:  2,
		Packed:  []byte{0b01000000},
		Codes:   huffman.CodeTable{'x': {Bits: 0, Len: 1}},
	}
	if _, err := Decode(&a); !errors.Is(err, ErrMalformedBitstream) {
		t.Errorf("Decode returned %v, want ErrMalformedBitstream", err)
	}
}

func TestConcurrentRoundtrips(t *testing.T) {
	inputs := [][]byte{
		[]byte("first concurrent input"),
		[]byte("second, a little longer than the first"),
		bytes.Repeat([]byte{0x42}, 500),
		allByteValues(),
	}

	var wg sync.WaitGroup
	for _, data := range inputs {
		for k := 0; k < 4; k++ {
			wg.Add(1)
			go func(data []byte) {
				defer wg.Done()
				res, err := Encode(data)
				if err != nil {
					t.Errorf("Encode failed: %v", err)
					return
				}
				decoded, err := Decode(res.Artifact)
				if err != nil {
					t.Errorf("Decode failed: %v", err)
					return
				}
				if !bytes.Equal(decoded, data) {
					t.Error("Concurrent roundtrip mismatch")
				}
			}(data)
		}
	}
	wg.Wait()
}

func allByteValues() []byte {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}
