package main

import (
	"fmt"
	"strings"

	"github.com/lanhtutoicao123/huffcodec/hufcodec"
	"github.com/lanhtutoicao123/huffcodec/huffman"
)

// session is the JSON document written by -session: the literal bit
// string, the checksum, and the whole model behind the encoding.
type session struct {
	EncodedData   string              `json:"encoded_data"`
	CRC           uint32              `json:"crc"`
	Codes         map[string]string   `json:"codes"`
	Frequencies   map[string]uint64   `json:"frequencies"`
	Probabilities map[string]float64  `json:"probabilities"`
	BuildSteps    *huffman.BuildTrace `json:"build_steps"`
	Tree          *huffman.Graph      `json:"tree"`
}

func newSession(res *hufcodec.Result) *session {
	s := &session{
		EncodedData:   bitString(res.Artifact),
		CRC:           res.Artifact.Checksum,
		Codes:         make(map[string]string, len(res.Artifact.Codes)),
		Frequencies:   make(map[string]uint64, len(res.Frequencies)),
		Probabilities: make(map[string]float64, len(res.Probabilities)),
		BuildSteps:    res.Trace,
		Tree:          res.Graph,
	}
	for sym, code := range res.Artifact.Codes {
		s.Codes[symbolKey(sym)] = code.String()
	}
	for sym, n := range res.Frequencies {
		s.Frequencies[symbolKey(sym)] = n
	}
	for sym, p := range res.Probabilities {
		s.Probabilities[symbolKey(sym)] = p
	}
	return s
}

// symbolKey renders a byte as a JSON map key: printable ASCII as
// itself, everything else as \xNN.
func symbolKey(sym huffman.Symbol) string {
	if sym >= 0x20 && sym < 0x7F {
		return string(rune(sym))
	}
	return fmt.Sprintf(`\x%02x`, sym)
}

// bitString renders the meaningful bits of the packed stream as ASCII.
func bitString(a *hufcodec.Artifact) string {
	var sb strings.Builder
	sb.Grow(int(a.BitLen))
	for i := uint64(0); i < a.BitLen; i++ {
		if a.Packed[i/8]>>(7-i%8)&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
