package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MarshalTree serializes leaves in the given order. Each entry is
//
//	<mode> SP <path> NUL <20 raw digest bytes>
//
// with no separator between entries. Modes are written as stored, without
// zero-padding.
func MarshalTree(leaves []Leaf) ([]byte, error) {
	var buf bytes.Buffer
	for _, l := range leaves {
		if err := checkMode(l.Mode); err != nil {
			return nil, fmt.Errorf("marshal tree %q: %w", l.Path, err)
		}
		if l.Path == "" || strings.IndexByte(l.Path, 0) >= 0 {
			return nil, fmt.Errorf("%w: marshal tree: bad path %q", ErrMalformedObject, l.Path)
		}
		raw, err := hex.DecodeString(string(l.Hash))
		if err != nil || len(raw) != HashSize {
			return nil, fmt.Errorf("%w: marshal tree %q: %q", ErrInvalidHash, l.Path, l.Hash)
		}
		buf.WriteString(l.Mode)
		buf.WriteByte(' ')
		buf.WriteString(l.Path)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a tree payload, advancing a cursor one entry at a
// time until the buffer is exhausted.
func UnmarshalTree(data []byte) ([]Leaf, error) {
	var leaves []Leaf
	pos := 0
	for pos < len(data) {
		leaf, next, err := parseLeaf(data, pos)
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		leaves = append(leaves, leaf)
		pos = next
	}
	return leaves, nil
}

// parseLeaf decodes the entry starting at pos and returns the offset just
// past it.
func parseLeaf(data []byte, pos int) (Leaf, int, error) {
	spc := bytes.IndexByte(data[pos:], ' ')
	if spc < 0 {
		return Leaf{}, 0, fmt.Errorf("%w: entry at offset %d has no mode terminator", ErrMalformedObject, pos)
	}
	mode := string(data[pos : pos+spc])
	if err := checkMode(mode); err != nil {
		return Leaf{}, 0, fmt.Errorf("entry at offset %d: %w", pos, err)
	}

	pathStart := pos + spc + 1
	nul := bytes.IndexByte(data[pathStart:], 0)
	if nul < 0 {
		return Leaf{}, 0, fmt.Errorf("%w: entry at offset %d has no path terminator", ErrMalformedObject, pos)
	}
	path := data[pathStart : pathStart+nul]
	if !utf8.Valid(path) {
		return Leaf{}, 0, fmt.Errorf("%w: tree path %q", ErrInvalidUTF8, path)
	}

	digestStart := pathStart + nul + 1
	digestEnd := digestStart + HashSize
	if digestEnd > len(data) {
		return Leaf{}, 0, fmt.Errorf("%w: entry %q truncated digest", ErrMalformedObject, path)
	}

	return Leaf{
		Mode: mode,
		Path: string(path),
		Hash: Hash(hex.EncodeToString(data[digestStart:digestEnd])),
	}, digestEnd, nil
}

func checkMode(mode string) error {
	if len(mode) != 5 && len(mode) != 6 {
		return fmt.Errorf("%w: %q has length %d", ErrInvalidTreeMode, mode, len(mode))
	}
	for i := 0; i < len(mode); i++ {
		if mode[i] < '0' || mode[i] > '7' {
			return fmt.Errorf("%w: %q is not octal", ErrInvalidTreeMode, mode)
		}
	}
	return nil
}

// DisplayMode zero-pads a stored mode to six digits for listings.
func DisplayMode(mode string) string {
	if len(mode) >= 6 {
		return mode
	}
	return strings.Repeat("0", 6-len(mode)) + mode
}
