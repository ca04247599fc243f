package object

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zlib"
	"go.uber.org/zap"
)

// DefaultCacheSize is the number of decoded payloads kept in memory.
const DefaultCacheSize = 256

// Store is a content-addressed loose object store with a 2-character
// fan-out directory layout: objects/ab/cdef0123...
type Store struct {
	root  string
	cache *lru.Cache[Hash, rawObject]
	log   *zap.Logger
}

type rawObject struct {
	typ  ObjectType
	data []byte
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for debug events.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCacheSize sets how many payloads are cached. Zero disables the cache.
func WithCacheSize(n int) StoreOption {
	return func(s *Store) {
		if n <= 0 {
			s.cache = nil
			return
		}
		c, err := lru.New[Hash, rawObject](n)
		if err == nil {
			s.cache = c
		}
	}
}

// NewStore creates a Store rooted at the repository metadata directory. The
// objects/ subdirectory is created lazily on first write.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{root: root, log: zap.NewNop()}
	WithCacheSize(DefaultCacheSize)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory the store was opened on.
func (s *Store) Root() string {
	return s.root
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write serializes obj, stores it and returns its content hash. Objects are
// immutable: an existing file is never rewritten. The compressed form is
// built in memory, written to a temp file and renamed into place.
func (s *Store) Write(obj Object) (Hash, error) {
	data, err := obj.Serialize()
	if err != nil {
		return "", fmt.Errorf("object write: %w", err)
	}
	return s.WriteRaw(obj.Type(), data)
}

// WriteRaw stores an already serialized payload of the given type.
func (s *Store) WriteRaw(objType ObjectType, data []byte) (Hash, error) {
	raw := Envelope(objType, data)
	h := HashObject(objType, data)

	if s.Has(h) {
		s.log.Debug("object exists", zap.String("hash", string(h)), zap.String("type", string(objType)))
		return h, nil
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("%w: object write %s: compress: %w", ErrIO, h, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: object write %s: compress: %w", ErrIO, h, err)
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: object write mkdir: %w", ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: object write tmpfile: %w", ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: object write: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: object write close: %w", ErrIO, err)
	}
	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: object write rename: %w", ErrIO, err)
	}

	s.log.Debug("object written",
		zap.String("hash", string(h)),
		zap.String("type", string(objType)),
		zap.Int("size", len(data)),
	)
	return h, nil
}

// ReadRaw retrieves an object by hash, returning its type and payload.
func (s *Store) ReadRaw(h Hash) (ObjectType, []byte, error) {
	if !h.Valid() {
		return "", nil, fmt.Errorf("object read: %w: %q", ErrInvalidHash, h)
	}
	if s.cache != nil {
		if obj, ok := s.cache.Get(h); ok {
			s.log.Debug("object cache hit", zap.String("hash", string(h)))
			return obj.typ, bytes.Clone(obj.data), nil
		}
	}

	compressed, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		return "", nil, fmt.Errorf("%w: object read %s: %w", ErrIO, h, err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", nil, fmt.Errorf("%w: object read %s: inflate: %w", ErrIO, h, err)
	}
	raw, err := io.ReadAll(zr)
	zr.Close()
	if err != nil {
		return "", nil, fmt.Errorf("%w: object read %s: inflate: %w", ErrIO, h, err)
	}

	objType, data, err := parseEnvelope(raw)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	if s.cache != nil {
		s.cache.Add(h, rawObject{typ: objType, data: bytes.Clone(data)})
	}
	return objType, data, nil
}

// parseEnvelope splits "type len\0content" and checks that the declared
// length matches the remaining bytes exactly.
func parseEnvelope(raw []byte) (ObjectType, []byte, error) {
	spc := bytes.IndexByte(raw, ' ')
	if spc < 0 {
		return "", nil, fmt.Errorf("%w: no type terminator", ErrMalformedObject)
	}
	nul := bytes.IndexByte(raw[spc:], 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("%w: no length terminator", ErrMalformedObject)
	}
	nul += spc

	objType, err := ParseObjectType(string(raw[:spc]))
	if err != nil {
		return "", nil, err
	}
	lenField := string(raw[spc+1 : nul])
	length, err := strconv.Atoi(lenField)
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad length %q", ErrMalformedObject, lenField)
	}
	content := raw[nul+1:]
	if length != len(content) {
		return "", nil, fmt.Errorf("%w: bad length (header=%d, actual=%d)", ErrMalformedObject, length, len(content))
	}
	return objType, content, nil
}

// Read retrieves an object and decodes it into its variant.
func (s *Store) Read(h Hash) (Object, error) {
	objType, data, err := s.ReadRaw(h)
	if err != nil {
		return nil, err
	}
	obj, err := Decode(objType, data)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return obj, nil
}

// PrefixMatch returns the stored hashes starting with prefix. The prefix
// must be at least two hex characters long.
func (s *Store) PrefixMatch(prefix string) ([]Hash, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < 2 || len(prefix) > HashSize*2 || !isLowerHex(prefix) {
		return nil, nil
	}
	dir := filepath.Join(s.root, "objects", prefix[:2])
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: prefix match %s: %w", ErrIO, prefix, err)
	}
	var out []Hash
	for _, e := range entries {
		h := Hash(prefix[:2] + e.Name())
		if h.Valid() && strings.HasPrefix(string(h), prefix) {
			out = append(out, h)
		}
	}
	return out, nil
}

// List returns every loose object hash in the store, sorted.
func (s *Store) List() ([]Hash, error) {
	dirs, err := os.ReadDir(filepath.Join(s.root, "objects"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list objects: %w", ErrIO, err)
	}
	var out []Hash
	for _, d := range dirs {
		if !d.IsDir() || len(d.Name()) != 2 || !isLowerHex(d.Name()) {
			continue
		}
		matches, err := s.PrefixMatch(d.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

func (s *Store) readTyped(h Hash, want ObjectType) (Object, error) {
	obj, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if obj.Type() != want {
		return nil, fmt.Errorf("%w: object %s: type mismatch: got %q, want %q", ErrMalformedObject, h, obj.Type(), want)
	}
	return obj, nil
}

// ReadBlob reads a blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	obj, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return obj.(*Blob), nil
}

// ReadTree reads a tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	obj, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	return obj.(*Tree), nil
}

// ReadCommit reads a commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	obj, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	return obj.(*Commit), nil
}

// ReadTag reads an annotated tag.
func (s *Store) ReadTag(h Hash) (*Tag, error) {
	obj, err := s.readTyped(h, TypeTag)
	if err != nil {
		return nil, err
	}
	return obj.(*Tag), nil
}
