package hufcodec

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"

	"github.com/lanhtutoicao123/huffcodec/huffman"
)

// pack concatenates the code of every input byte into a bitstream,
// zero-padded to a whole byte. It returns the packed bytes and the
// meaningful bit count.
func pack(data []byte, codes huffman.CodeTable) ([]byte, uint64, error) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)

	var bitLen uint64
	for i, b := range data {
		code, ok := codes[b]
		if !ok {
			return nil, 0, fmt.Errorf("%w: no code for byte %#02x at offset %d", ErrInvalidCodeTable, b, i)
		}
		if err := w.WriteBits(code.Bits, code.Len); err != nil {
			return nil, 0, err
		}
		bitLen += uint64(code.Len)
	}
	if err := w.Close(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), bitLen, nil
}

// decodeNode is one vertex of the decoding tree rebuilt from a code
// table. Leaves carry the decoded symbol.
type decodeNode struct {
	children [2]*decodeNode
	symbol   huffman.Symbol
	leaf     bool
}

// newDecodeTree rebuilds the decoding tree from a code table. Tables
// that violate the prefix property cannot have come from a Huffman
// tree and are rejected.
func newDecodeTree(codes huffman.CodeTable) (*decodeNode, error) {
	root := &decodeNode{}
	for sym, code := range codes {
		if code.Len == 0 {
			return nil, fmt.Errorf("%w: empty code for byte %#02x", ErrInvalidCodeTable, sym)
		}

		n := root
		for i := int(code.Len) - 1; i >= 0; i-- {
			if n.leaf {
				return nil, fmt.Errorf("%w: code of byte %#02x extends another code", ErrInvalidCodeTable, sym)
			}
			bit := code.Bits >> uint(i) & 1
			if n.children[bit] == nil {
				n.children[bit] = &decodeNode{}
			}
			n = n.children[bit]
		}
		if n.leaf || n.children[0] != nil || n.children[1] != nil {
			return nil, fmt.Errorf("%w: code of byte %#02x is a prefix of another code", ErrInvalidCodeTable, sym)
		}
		n.symbol = sym
		n.leaf = true
	}
	return root, nil
}

// unpack walks the decoding tree over the packed bitstream, emitting a
// symbol and restarting from the root at every leaf, until the
// meaningful bits are consumed.
func unpack(a *Artifact, root *decodeNode) ([]byte, error) {
	r := bitio.NewReader(bytes.NewReader(a.Packed))

	// Every decoded byte consumes at least one bit, so the stream
	// bounds the output size no matter what OrigLen claims.
	capHint := a.OrigLen
	if limit := uint64(len(a.Packed)) * 8; capHint > limit {
		capHint = limit
	}
	out := make([]byte, 0, capHint)

	n := root
	for i := uint64(0); i < a.BitLen; i++ {
		bit, err := r.ReadBool()
		if err != nil {
			return nil, fmt.Errorf("%w: bitstream ends at bit %d of %d", ErrMalformedBitstream, i, a.BitLen)
		}

		idx := 0
		if bit {
			idx = 1
		}
		n = n.children[idx]
		if n == nil {
			return nil, fmt.Errorf("%w: no code matches the bits at offset %d", ErrMalformedBitstream, i)
		}
		if n.leaf {
			out = append(out, n.symbol)
			n = root
		}
	}

	if n != root {
		return nil, fmt.Errorf("%w: bitstream ends inside a code", ErrMalformedBitstream)
	}
	if uint64(len(out)) != a.OrigLen {
		return nil, fmt.Errorf("%w: decoded %d bytes, artifact declares %d", ErrMalformedBitstream, len(out), a.OrigLen)
	}
	return out, nil
}
