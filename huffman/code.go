package huffman

import (
	"errors"
	"strings"
)

// maxCodeLen bounds code length to what a uint64 can hold.
const maxCodeLen = 64

// ErrCodeTooLong is returned by Codes when a leaf sits deeper than 64
// levels, which cannot be represented in a Code.
var ErrCodeTooLong = errors.New("code length exceeds 64 bits")

// Code is the bit pattern assigned to one symbol. The first branch
// taken from the root occupies the most significant of the Len low
// bits of Bits.
type Code struct {
	Bits uint64
	Len  uint8
}

// String renders the code as a literal bit string, e.g. "010".
func (c Code) String() string {
	var sb strings.Builder
	sb.Grow(int(c.Len))
	for i := int(c.Len) - 1; i >= 0; i-- {
		if c.Bits>>uint(i)&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// CodeTable maps every symbol of a tree to its prefix code. No code in
// a table produced by Codes is a prefix of another.
type CodeTable map[Symbol]Code

// Codes derives the code table from a Huffman tree: left branches
// append a 0 bit, right branches a 1. A tree consisting of a single
// leaf yields the one-bit code "0" for its symbol, so even that
// degenerate stream occupies one bit per symbol.
func Codes(root *Node) (CodeTable, error) {
	table := make(CodeTable)
	if root == nil {
		return table, nil
	}
	if root.Leaf() {
		table[root.Symbol] = Code{Bits: 0, Len: 1}
		return table, nil
	}
	if err := assign(root, Code{}, table); err != nil {
		return nil, err
	}
	return table, nil
}

func assign(n *Node, prefix Code, table CodeTable) error {
	if n.Leaf() {
		table[n.Symbol] = prefix
		return nil
	}
	if prefix.Len == maxCodeLen {
		return ErrCodeTooLong
	}

	next := Code{Bits: prefix.Bits << 1, Len: prefix.Len + 1}
	if err := assign(n.Left, next, table); err != nil {
		return err
	}
	next.Bits |= 1
	return assign(n.Right, next, table)
}
