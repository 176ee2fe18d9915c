// Package hufcodec compresses byte streams with Huffman coding and
// packages the result as a self-contained, round-trippable artifact.
// An artifact carries the packed bitstream, the code table needed to
// reverse it, and a CRC-32 checksum of the original data.
package hufcodec

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/lanhtutoicao123/huffcodec/huffman"
)

var (
	// ErrMalformedBitstream indicates a packed bitstream that cannot be
	// decoded with the artifact's code table: it is truncated, stops in
	// the middle of a code, or disagrees with the recorded lengths.
	ErrMalformedBitstream = errors.New("malformed bitstream")

	// ErrIntegrityFailure indicates that decoding produced data whose
	// checksum does not match the one stored in the artifact.
	ErrIntegrityFailure = errors.New("integrity check failed")

	// ErrInvalidCodeTable indicates a code table that violates the
	// prefix property or is otherwise unusable for decoding.
	ErrInvalidCodeTable = errors.New("invalid code table")

	// ErrInvalidArtifact indicates a serialized artifact that cannot be
	// parsed: bad magic, unsupported version, or corrupt framing.
	ErrInvalidArtifact = errors.New("invalid artifact")
)

// Result is everything Encode produces: the artifact to persist plus
// the model behind it, for callers that want to inspect or visualize
// the encoding. Trace and Probabilities are nil for empty input.
type Result struct {
	Artifact      *Artifact
	Frequencies   huffman.FrequencyTable
	Probabilities map[huffman.Symbol]float64
	Trace         *huffman.BuildTrace
	Graph         *huffman.Graph
}

// Encode compresses data into an artifact. Empty input is valid and
// yields an empty artifact that decodes back to zero bytes.
func Encode(data []byte) (*Result, error) {
	freqs := huffman.Count(data)

	res := &Result{
		Artifact: &Artifact{
			OrigLen:  uint64(len(data)),
			Checksum: crc32.ChecksumIEEE(data),
			Codes:    huffman.CodeTable{},
		},
		Frequencies: freqs,
	}
	if len(freqs) == 0 {
		res.Graph = huffman.NewGraph(nil)
		return res, nil
	}

	root, trace, err := huffman.Build(freqs)
	if err != nil {
		return nil, err
	}
	codes, err := huffman.Codes(root)
	if err != nil {
		return nil, err
	}

	packed, bitLen, err := pack(data, codes)
	if err != nil {
		return nil, err
	}

	res.Artifact.BitLen = bitLen
	res.Artifact.Packed = packed
	res.Artifact.Codes = codes
	res.Probabilities = freqs.Probabilities()
	res.Trace = trace
	res.Graph = huffman.NewGraph(root)
	return res, nil
}

// Decode reconstructs the original data from an artifact. It rebuilds
// the decoding tree from the embedded code table, walks the packed
// bitstream, and verifies the checksum of the result.
func Decode(a *Artifact) ([]byte, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}

	data := []byte{}
	if a.BitLen > 0 {
		root, err := newDecodeTree(a.Codes)
		if err != nil {
			return nil, err
		}
		data, err = unpack(a, root)
		if err != nil {
			return nil, err
		}
	}

	if sum := crc32.ChecksumIEEE(data); sum != a.Checksum {
		return nil, fmt.Errorf("%w: checksum %08x, artifact declares %08x",
			ErrIntegrityFailure, sum, a.Checksum)
	}
	return data, nil
}
