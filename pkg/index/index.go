// Package index reads the binary staging index ("DIRC" file) written by git.
// Only versions 2 and 3 are understood; the reader never modifies the file.
package index

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/pjbgf/sha1cd"
	"github.com/willothy/wit/pkg/object"
)

var (
	ErrMalformedIndex          = errors.New("malformed index")
	ErrUnsupportedIndexVersion = errors.New("unsupported index version")
)

const (
	signature    = "DIRC"
	headerSize   = 12
	entryFixed   = 62
	checksumSize = 20

	flagExtended  = 0x4000
	flagAssume    = 0x8000
	flagStageMask = 0x3000
	flagNameMask  = 0x0fff

	extFlagSkipWorktree = 0x4000
	extFlagIntentToAdd  = 0x2000
)

// Timestamp is a seconds/nanoseconds pair as stored on disk.
type Timestamp struct {
	Sec  uint32
	Nsec uint32
}

// Entry is one record of the index.
type Entry struct {
	CTime Timestamp
	MTime Timestamp
	Dev   uint32
	Ino   uint32
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  uint32
	Hash  object.Hash
	Flags uint16
	// ExtendedFlags is only present in version 3 entries with the
	// extended bit set.
	ExtendedFlags uint16
	Path          string
}

// Stage returns the merge stage (0 for a normal entry).
func (e Entry) Stage() int {
	return int(e.Flags&flagStageMask) >> 12
}

// AssumeValid reports the assume-valid bit.
func (e Entry) AssumeValid() bool {
	return e.Flags&flagAssume != 0
}

// SkipWorktree reports the skip-worktree extended bit.
func (e Entry) SkipWorktree() bool {
	return e.ExtendedFlags&extFlagSkipWorktree != 0
}

// IntentToAdd reports the intent-to-add extended bit.
func (e Entry) IntentToAdd() bool {
	return e.ExtendedFlags&extFlagIntentToAdd != 0
}

// ObjectKind returns the upper four bits of the mode: 0b1000 regular file,
// 0b1010 symlink, 0b1110 gitlink.
func (e Entry) ObjectKind() uint32 {
	return e.Mode >> 12
}

// Perm returns the unix permission bits of the mode.
func (e Entry) Perm() uint32 {
	return e.Mode & 0o777
}

// Index is a parsed index file.
type Index struct {
	Version    uint32
	Entries    []Entry
	Extensions []string
}

// ReadFile reads and parses the index at path.
func ReadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read index %s: %w", object.ErrIO, path, err)
	}
	idx, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	return idx, nil
}

// Parse decodes an index from memory and verifies its trailing checksum.
// An all-zero trailer, written by git under index.skipHash, is not checked.
func Parse(data []byte) (*Index, error) {
	if len(data) < headerSize+checksumSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrMalformedIndex, len(data))
	}
	body := data[:len(data)-checksumSize]
	trailer := data[len(data)-checksumSize:]
	if !bytes.Equal(trailer, make([]byte, checksumSize)) {
		h := sha1cd.New()
		h.Write(body)
		if !bytes.Equal(h.Sum(nil), trailer) {
			return nil, fmt.Errorf("%w: checksum mismatch", ErrMalformedIndex)
		}
	}

	if string(body[:4]) != signature {
		return nil, fmt.Errorf("%w: bad signature %q", ErrMalformedIndex, body[:4])
	}
	version := binary.BigEndian.Uint32(body[4:8])
	if version != 2 && version != 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedIndexVersion, version)
	}
	count := binary.BigEndian.Uint32(body[8:12])

	idx := &Index{Version: version}
	if count > 0 {
		idx.Entries = make([]Entry, 0, min(int(count), len(body)/entryFixed))
	}
	pos := headerSize
	for i := uint32(0); i < count; i++ {
		e, next, err := parseEntry(body, pos, version)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		idx.Entries = append(idx.Entries, e)
		pos = next
	}

	for pos < len(body) {
		if len(body)-pos < 8 {
			return nil, fmt.Errorf("%w: truncated extension header at offset %d", ErrMalformedIndex, pos)
		}
		name := string(body[pos : pos+4])
		size := binary.BigEndian.Uint32(body[pos+4 : pos+8])
		end := pos + 8 + int(size)
		if end > len(body) {
			return nil, fmt.Errorf("%w: extension %q overruns file", ErrMalformedIndex, name)
		}
		idx.Extensions = append(idx.Extensions, name)
		pos = end
	}
	return idx, nil
}

// parseEntry decodes the entry at pos. Entries are NUL-padded so that each
// one occupies a multiple of eight bytes; the returned offset skips that
// padding.
func parseEntry(body []byte, pos int, version uint32) (Entry, int, error) {
	if len(body)-pos < entryFixed {
		return Entry{}, 0, fmt.Errorf("%w: truncated entry at offset %d", ErrMalformedIndex, pos)
	}
	b := body[pos:]
	e := Entry{
		CTime: Timestamp{Sec: binary.BigEndian.Uint32(b[0:4]), Nsec: binary.BigEndian.Uint32(b[4:8])},
		MTime: Timestamp{Sec: binary.BigEndian.Uint32(b[8:12]), Nsec: binary.BigEndian.Uint32(b[12:16])},
		Dev:   binary.BigEndian.Uint32(b[16:20]),
		Ino:   binary.BigEndian.Uint32(b[20:24]),
		Mode:  binary.BigEndian.Uint32(b[24:28]),
		UID:   binary.BigEndian.Uint32(b[28:32]),
		GID:   binary.BigEndian.Uint32(b[32:36]),
		Size:  binary.BigEndian.Uint32(b[36:40]),
		Hash:  object.Hash(hex.EncodeToString(b[40:60])),
		Flags: binary.BigEndian.Uint16(b[60:62]),
	}

	fixed := entryFixed
	if e.Flags&flagExtended != 0 {
		if version < 3 {
			return Entry{}, 0, fmt.Errorf("%w: extended flag in version %d entry", ErrMalformedIndex, version)
		}
		if len(b) < fixed+2 {
			return Entry{}, 0, fmt.Errorf("%w: truncated extended flags at offset %d", ErrMalformedIndex, pos)
		}
		e.ExtendedFlags = binary.BigEndian.Uint16(b[fixed : fixed+2])
		fixed += 2
	}

	nul := bytes.IndexByte(b[fixed:], 0)
	if nul < 0 {
		return Entry{}, 0, fmt.Errorf("%w: unterminated path at offset %d", ErrMalformedIndex, pos)
	}
	if n := int(e.Flags & flagNameMask); n != flagNameMask && n != nul {
		return Entry{}, 0, fmt.Errorf("%w: path length %d does not match flags (%d)", ErrMalformedIndex, nul, n)
	}
	path := b[fixed : fixed+nul]
	if !utf8.Valid(path) {
		return Entry{}, 0, fmt.Errorf("%w: index path %q", object.ErrInvalidUTF8, path)
	}
	e.Path = string(path)

	size := (fixed + nul + 8) &^ 7
	if size > len(b) {
		return Entry{}, 0, fmt.Errorf("%w: entry padding overruns file at offset %d", ErrMalformedIndex, pos)
	}
	return e, pos + size, nil
}
