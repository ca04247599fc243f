package index

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/pjbgf/sha1cd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willothy/wit/pkg/object"
)

const blobHash = "ce013625030ba8dba906f756967f9e9ca394464a"

func encodeWithGoGit(t *testing.T, idx *gitindex.Index) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gitindex.NewEncoder(&buf).Encode(idx))
	return buf.Bytes()
}

func TestParseGoGitIndex(t *testing.T) {
	mtime := time.Unix(1700000000, 42)
	data := encodeWithGoGit(t, &gitindex.Index{
		Version: 2,
		Entries: []*gitindex.Entry{
			{
				Hash:       plumbing.NewHash(blobHash),
				Name:       "a.txt",
				Mode:       filemode.Regular,
				Size:       6,
				ModifiedAt: mtime,
				CreatedAt:  mtime,
				Dev:        7,
				Inode:      99,
				UID:        1000,
				GID:        100,
			},
			{
				Hash: plumbing.NewHash(strings.Repeat("1", 40)),
				Name: "dir/run.sh",
				Mode: filemode.Executable,
			},
			{
				// Path lengths around the 8-byte boundary exercise the padding rule.
				Hash: plumbing.NewHash(strings.Repeat("2", 40)),
				Name: "exactly8",
				Mode: filemode.Regular,
			},
		},
	})

	idx, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx.Version)
	require.Len(t, idx.Entries, 3)

	first := idx.Entries[0]
	assert.Equal(t, "a.txt", first.Path)
	assert.Equal(t, object.Hash(blobHash), first.Hash)
	assert.Equal(t, uint32(0o100644), first.Mode)
	assert.Equal(t, uint32(0b1000), first.ObjectKind())
	assert.Equal(t, uint32(0o644), first.Perm())
	assert.Equal(t, uint32(6), first.Size)
	assert.Equal(t, Timestamp{Sec: 1700000000, Nsec: 42}, first.MTime)
	assert.Equal(t, uint32(7), first.Dev)
	assert.Equal(t, uint32(99), first.Ino)
	assert.Equal(t, uint32(1000), first.UID)
	assert.Equal(t, uint32(100), first.GID)
	assert.Equal(t, 0, first.Stage())

	assert.Equal(t, "dir/run.sh", idx.Entries[1].Path)
	assert.Equal(t, uint32(0o100755), idx.Entries[1].Mode)
	assert.Equal(t, "exactly8", idx.Entries[2].Path)
	assert.Equal(t, object.Hash(strings.Repeat("2", 40)), idx.Entries[2].Hash)
}

func TestParseEmptyIndex(t *testing.T) {
	idx, err := Parse(encodeWithGoGit(t, &gitindex.Index{Version: 2}))
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
}

// rawEntry lays out one entry by hand, including version 3 extended flags.
func rawEntry(path string, hash string, flags uint16, extended uint16) []byte {
	fixed := make([]byte, 62)
	binary.BigEndian.PutUint32(fixed[24:28], 0o100644)
	digest, _ := hex.DecodeString(hash)
	copy(fixed[40:60], digest)
	nameLen := uint16(len(path))
	if nameLen > flagNameMask {
		nameLen = flagNameMask
	}
	binary.BigEndian.PutUint16(fixed[60:62], flags|nameLen)

	out := append([]byte{}, fixed...)
	if flags&flagExtended != 0 {
		out = binary.BigEndian.AppendUint16(out, extended)
	}
	out = append(out, path...)
	out = append(out, 0)
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	return out
}

func rawIndex(version uint32, entries [][]byte, tail []byte) []byte {
	var body bytes.Buffer
	body.WriteString("DIRC")
	binary.Write(&body, binary.BigEndian, version)
	binary.Write(&body, binary.BigEndian, uint32(len(entries)))
	for _, e := range entries {
		body.Write(e)
	}
	body.Write(tail)

	h := sha1cd.New()
	h.Write(body.Bytes())
	return append(body.Bytes(), h.Sum(nil)...)
}

func TestParseVersion3ExtendedFlags(t *testing.T) {
	data := rawIndex(3, [][]byte{
		rawEntry("plain", blobHash, 0, 0),
		rawEntry("sparse/file", blobHash, flagExtended|0x1000, extFlagSkipWorktree),
	}, nil)

	idx, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)

	assert.Equal(t, "plain", idx.Entries[0].Path)
	assert.False(t, idx.Entries[0].SkipWorktree())

	e := idx.Entries[1]
	assert.Equal(t, "sparse/file", e.Path)
	assert.True(t, e.SkipWorktree())
	assert.False(t, e.IntentToAdd())
	assert.Equal(t, 1, e.Stage())
}

func TestParseSkipsExtensions(t *testing.T) {
	ext := []byte("TREE")
	ext = binary.BigEndian.AppendUint32(ext, 5)
	ext = append(ext, "abcde"...)
	ext = append(ext, "REUC"...)
	ext = binary.BigEndian.AppendUint32(ext, 0)

	idx, err := Parse(rawIndex(2, [][]byte{rawEntry("a", blobHash, 0, 0)}, ext))
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, []string{"TREE", "REUC"}, idx.Extensions)
}

func TestParseRejectsBadInput(t *testing.T) {
	good := rawIndex(2, [][]byte{rawEntry("a", blobHash, 0, 0)}, nil)

	corrupt := bytes.Clone(good)
	corrupt[len(corrupt)-1] ^= 0xff

	badSig := rawIndex(2, nil, nil)
	copy(badSig, "XXXX")
	h := sha1cd.New()
	h.Write(badSig[:len(badSig)-20])
	copy(badSig[len(badSig)-20:], h.Sum(nil))

	cases := map[string]struct {
		data []byte
		want error
	}{
		"too short":          {data: []byte("DIRC"), want: ErrMalformedIndex},
		"checksum mismatch":  {data: corrupt, want: ErrMalformedIndex},
		"bad signature":      {data: badSig, want: ErrMalformedIndex},
		"version 4":          {data: rawIndex(4, nil, nil), want: ErrUnsupportedIndexVersion},
		"missing entries":    {data: rawIndex(2, nil, nil)[:12], want: ErrMalformedIndex},
		"extended in v2":     {data: rawIndex(2, [][]byte{rawEntry("a", blobHash, flagExtended, 0)}, nil), want: ErrMalformedIndex},
		"truncated ext data": {data: rawIndex(2, nil, []byte("TREE\x00\x00\x00\x09ab")), want: ErrMalformedIndex},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.data)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseSkipHashTrailer(t *testing.T) {
	data := encodeWithGoGit(t, &gitindex.Index{
		Version: 2,
		Entries: []*gitindex.Entry{{Hash: plumbing.NewHash(blobHash), Name: "a.txt", Mode: filemode.Regular}},
	})
	copy(data[len(data)-20:], make([]byte, 20))

	idx, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "a.txt", idx.Entries[0].Path)

	empty := encodeWithGoGit(t, &gitindex.Index{Version: 2})
	copy(empty[len(empty)-20:], make([]byte, 20))
	idx, err = Parse(empty)
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
}

func TestParseRejectsEntryCountOverrun(t *testing.T) {
	data := rawIndex(2, [][]byte{rawEntry("a", blobHash, 0, 0)}, nil)
	// Claim two entries while only one is present.
	binary.BigEndian.PutUint32(data[8:12], 2)
	h := sha1cd.New()
	h.Write(data[:len(data)-20])
	copy(data[len(data)-20:], h.Sum(nil))

	_, err := Parse(data)
	assert.ErrorIs(t, err, ErrMalformedIndex)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.WriteFile(path, rawIndex(2, [][]byte{rawEntry("f", blobHash, 0, 0)}, nil), 0o644))

	idx, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "f", idx.Entries[0].Path)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, object.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
