package object

import (
	"fmt"
	"strings"
)

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

// HashSize is the length in bytes of a raw digest.
const HashSize = 20

// Valid reports whether h is a full 40-character lowercase hex digest.
func (h Hash) Valid() bool {
	if len(h) != HashSize*2 {
		return false
	}
	return isLowerHex(string(h))
}

// Short returns the abbreviated form used in human-readable output.
func (h Hash) Short() string {
	if len(h) > 7 {
		return string(h[:7])
	}
	return string(h)
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ParseHash normalizes s to lowercase and checks that it is a full digest.
func ParseHash(s string) (Hash, error) {
	h := Hash(strings.ToLower(strings.TrimSpace(s)))
	if !h.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return h, nil
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

// ParseObjectType maps a header type tag onto one of the four known types.
func ParseObjectType(s string) (ObjectType, error) {
	switch t := ObjectType(s); t {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownObjectType, s)
	}
}

const (
	// Tree mode strings as they appear in stored trees.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
	TreeModeGitlink    = "160000"
)

// Object is the closed set of storable objects: *Blob, *Tree, *Commit and
// *Tag. The unexported method keeps other packages from adding variants.
type Object interface {
	Type() ObjectType
	Serialize() ([]byte, error)
	Deserialize(data []byte) error

	object()
}

// New returns an empty object of the given type, ready for Deserialize.
func New(t ObjectType) (Object, error) {
	switch t {
	case TypeBlob:
		return &Blob{}, nil
	case TypeTree:
		return &Tree{}, nil
	case TypeCommit:
		return &Commit{KVLM: NewKVLM()}, nil
	case TypeTag:
		return &Tag{KVLM: NewKVLM()}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjectType, t)
	}
}

// Decode builds an object of type t from its stored payload.
func Decode(t ObjectType, data []byte) (Object, error) {
	obj, err := New(t)
	if err != nil {
		return nil, err
	}
	if err := obj.Deserialize(data); err != nil {
		return nil, err
	}
	return obj, nil
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

func (b *Blob) Type() ObjectType { return TypeBlob }

// Serialize returns a copy of the blob's bytes.
func (b *Blob) Serialize() ([]byte, error) {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out, nil
}

// Deserialize replaces the blob's bytes with a copy of data.
func (b *Blob) Deserialize(data []byte) error {
	b.Data = make([]byte, len(data))
	copy(b.Data, data)
	return nil
}

func (*Blob) object() {}

// Leaf is one entry of a tree: a mode, a single path component and the
// digest of the blob or subtree it names.
type Leaf struct {
	Mode string
	Path string
	Hash Hash
}

// IsTree reports whether the leaf's mode marks a subdirectory.
func (l Leaf) IsTree() bool {
	return l.Mode == TreeModeDir || l.Mode == "040000"
}

// Tree holds leaves in stored order.
type Tree struct {
	Leaves []Leaf
}

func (t *Tree) Type() ObjectType { return TypeTree }

func (t *Tree) Serialize() ([]byte, error) {
	return MarshalTree(t.Leaves)
}

func (t *Tree) Deserialize(data []byte) error {
	leaves, err := UnmarshalTree(data)
	if err != nil {
		return err
	}
	t.Leaves = leaves
	return nil
}

func (*Tree) object() {}

// Commit is a KVLM with a tree, zero or more parents, an author and a
// committer.
type Commit struct {
	KVLM *KVLM
}

func (c *Commit) Type() ObjectType { return TypeCommit }

func (c *Commit) Serialize() ([]byte, error) {
	return c.kvlm().Marshal(), nil
}

func (c *Commit) Deserialize(data []byte) error {
	kv, err := ParseKVLM(data)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	c.KVLM = kv
	return nil
}

func (c *Commit) kvlm() *KVLM {
	if c.KVLM == nil {
		c.KVLM = NewKVLM()
	}
	return c.KVLM
}

// TreeHash returns the commit's single tree field.
func (c *Commit) TreeHash() (Hash, error) {
	trees := c.kvlm().Get("tree")
	if len(trees) != 1 {
		return "", fmt.Errorf("%w: commit has %d tree fields, want 1", ErrMissingData, len(trees))
	}
	return Hash(trees[0]), nil
}

// Parents returns the commit's parent digests in stored order.
func (c *Commit) Parents() []Hash {
	values := c.kvlm().Get("parent")
	out := make([]Hash, len(values))
	for i, v := range values {
		out[i] = Hash(v)
	}
	return out
}

// Message returns the free-text commit message.
func (c *Commit) Message() string {
	return c.kvlm().Message
}

func (*Commit) object() {}

// Tag is a KVLM with object, type, tag and tagger fields.
type Tag struct {
	KVLM *KVLM
}

func (t *Tag) Type() ObjectType { return TypeTag }

func (t *Tag) Serialize() ([]byte, error) {
	return t.kvlm().Marshal(), nil
}

func (t *Tag) Deserialize(data []byte) error {
	kv, err := ParseKVLM(data)
	if err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	t.KVLM = kv
	return nil
}

func (t *Tag) kvlm() *KVLM {
	if t.KVLM == nil {
		t.KVLM = NewKVLM()
	}
	return t.KVLM
}

// Target returns the tagged object's digest and declared type.
func (t *Tag) Target() (Hash, ObjectType, error) {
	obj, ok := t.kvlm().First("object")
	if !ok {
		return "", "", fmt.Errorf("%w: tag has no object field", ErrMissingData)
	}
	typ, ok := t.kvlm().First("type")
	if !ok {
		return "", "", fmt.Errorf("%w: tag has no type field", ErrMissingData)
	}
	return Hash(obj), ObjectType(typ), nil
}

func (*Tag) object() {}
