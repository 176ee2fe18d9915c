package hufcodec

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lanhtutoicao123/huffcodec/huffman"
)

// Artifact is the self-contained output of an encode: the packed
// bitstream plus everything needed to reverse it and verify the
// result. The original data is recoverable from the artifact alone.
type Artifact struct {
	OrigLen  uint64            // length of the original data in bytes
	Checksum uint32            // CRC-32 (IEEE) of the original data
	BitLen   uint64            // meaningful bits in Packed, excluding padding
	Packed   []byte            // packed bitstream, zero-padded to a whole byte
	Codes    huffman.CodeTable // prefix code of every symbol
}

// Serialized artifacts start with a fixed magic, followed by a
// protobuf wire message.
var artifactMagic = [4]byte{'H', 'U', 'F', '1'}

const artifactVersion = 1

// Field numbers of the artifact wire message.
const (
	fieldVersion  = 1 // varint
	fieldOrigLen  = 2 // varint
	fieldChecksum = 3 // fixed32
	fieldBitLen   = 4 // varint
	fieldPacked   = 5 // bytes
	fieldCode     = 6 // bytes, one embedded code entry per symbol
)

// Field numbers of an embedded code entry.
const (
	codeFieldSymbol = 1 // varint
	codeFieldLen    = 2 // varint
	codeFieldBits   = 3 // varint
)

// validate checks that the artifact's lengths agree with each other
// before any decoding work starts.
func (a *Artifact) validate() error {
	capacity := uint64(len(a.Packed)) * 8
	if a.BitLen > capacity || capacity-a.BitLen >= 8 {
		return fmt.Errorf("%w: %d packed bytes cannot hold %d meaningful bits",
			ErrMalformedBitstream, len(a.Packed), a.BitLen)
	}
	if a.BitLen > 0 && len(a.Codes) == 0 {
		return fmt.Errorf("%w: no codes for a %d-bit stream", ErrInvalidCodeTable, a.BitLen)
	}
	if a.OrigLen > 0 && a.BitLen == 0 {
		return fmt.Errorf("%w: %d original bytes but an empty bitstream",
			ErrMalformedBitstream, a.OrigLen)
	}
	return nil
}

// MarshalBinary serializes the artifact as the magic "HUF1" followed
// by a protobuf wire message. Code entries are written in ascending
// symbol order, so equal artifacts marshal to equal bytes.
func (a *Artifact) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 32+len(a.Packed)+10*len(a.Codes))
	buf = append(buf, artifactMagic[:]...)

	buf = protowire.AppendTag(buf, fieldVersion, protowire.VarintType)
	buf = protowire.AppendVarint(buf, artifactVersion)
	buf = protowire.AppendTag(buf, fieldOrigLen, protowire.VarintType)
	buf = protowire.AppendVarint(buf, a.OrigLen)
	buf = protowire.AppendTag(buf, fieldChecksum, protowire.Fixed32Type)
	buf = protowire.AppendFixed32(buf, a.Checksum)
	buf = protowire.AppendTag(buf, fieldBitLen, protowire.VarintType)
	buf = protowire.AppendVarint(buf, a.BitLen)
	buf = protowire.AppendTag(buf, fieldPacked, protowire.BytesType)
	buf = protowire.AppendBytes(buf, a.Packed)

	symbols := make([]huffman.Symbol, 0, len(a.Codes))
	for sym := range a.Codes {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	var entry []byte
	for _, sym := range symbols {
		code := a.Codes[sym]
		entry = entry[:0]
		entry = protowire.AppendTag(entry, codeFieldSymbol, protowire.VarintType)
		entry = protowire.AppendVarint(entry, uint64(sym))
		entry = protowire.AppendTag(entry, codeFieldLen, protowire.VarintType)
		entry = protowire.AppendVarint(entry, uint64(code.Len))
		entry = protowire.AppendTag(entry, codeFieldBits, protowire.VarintType)
		entry = protowire.AppendVarint(entry, code.Bits)

		buf = protowire.AppendTag(buf, fieldCode, protowire.BytesType)
		buf = protowire.AppendBytes(buf, entry)
	}

	return buf, nil
}

// WriteTo serializes the artifact to w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	raw, err := a.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(raw)
	return int64(n), err
}

// ReadFrom parses an artifact from r, which is read to its end.
func (a *Artifact) ReadFrom(r io.Reader) (int64, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return int64(len(raw)), err
	}
	return int64(len(raw)), a.UnmarshalBinary(raw)
}

// UnmarshalBinary parses a serialized artifact. Unknown fields are
// skipped, so artifacts written by newer versions stay readable as
// long as the format version matches.
func (a *Artifact) UnmarshalBinary(data []byte) error {
	if len(data) < len(artifactMagic) || !bytes.Equal(data[:len(artifactMagic)], artifactMagic[:]) {
		return fmt.Errorf("%w: missing %q magic", ErrInvalidArtifact, artifactMagic)
	}
	data = data[len(artifactMagic):]

	out := Artifact{Codes: huffman.CodeTable{}}
	var version uint64
	seenVersion := false

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrInvalidArtifact, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: version: %v", ErrInvalidArtifact, protowire.ParseError(n))
			}
			version, seenVersion = v, true
			data = data[n:]

		case num == fieldOrigLen && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: original length: %v", ErrInvalidArtifact, protowire.ParseError(n))
			}
			out.OrigLen = v
			data = data[n:]

		case num == fieldChecksum && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return fmt.Errorf("%w: checksum: %v", ErrInvalidArtifact, protowire.ParseError(n))
			}
			out.Checksum = v
			data = data[n:]

		case num == fieldBitLen && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: bit length: %v", ErrInvalidArtifact, protowire.ParseError(n))
			}
			out.BitLen = v
			data = data[n:]

		case num == fieldPacked && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("%w: packed data: %v", ErrInvalidArtifact, protowire.ParseError(n))
			}
			out.Packed = append([]byte(nil), v...)
			data = data[n:]

		case num == fieldCode && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("%w: code entry: %v", ErrInvalidArtifact, protowire.ParseError(n))
			}
			if err := consumeCodeEntry(v, out.Codes); err != nil {
				return err
			}
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrInvalidArtifact, num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if !seenVersion || version != artifactVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidArtifact, version)
	}

	*a = out
	return nil
}

// consumeCodeEntry parses one embedded code entry into codes.
func consumeCodeEntry(data []byte, codes huffman.CodeTable) error {
	var symbol, length, bits uint64

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: code entry: %v", ErrInvalidArtifact, protowire.ParseError(n))
		}
		data = data[n:]

		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: code entry field %d: %v", ErrInvalidArtifact, num, protowire.ParseError(n))
			}
			data = data[n:]

			switch num {
			case codeFieldSymbol:
				symbol = v
			case codeFieldLen:
				length = v
			case codeFieldBits:
				bits = v
			}
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return fmt.Errorf("%w: code entry field %d: %v", ErrInvalidArtifact, num, protowire.ParseError(n))
		}
		data = data[n:]
	}

	if symbol > 0xFF {
		return fmt.Errorf("%w: code entry symbol %d out of byte range", ErrInvalidArtifact, symbol)
	}
	if length == 0 || length > 64 {
		return fmt.Errorf("%w: code of byte %#02x has length %d", ErrInvalidCodeTable, symbol, length)
	}
	if _, ok := codes[huffman.Symbol(symbol)]; ok {
		return fmt.Errorf("%w: duplicate code entry for byte %#02x", ErrInvalidCodeTable, symbol)
	}

	codes[huffman.Symbol(symbol)] = huffman.Code{Bits: bits, Len: uint8(length)}
	return nil
}
