package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKVLMCommit(t *testing.T) {
	raw := "tree T\nparent P\nauthor A <a@b> 0 +0000\n\nmsg\n"

	kv, err := ParseKVLM([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, []string{"tree", "parent", "author"}, kv.Keys())
	assert.Equal(t, []string{"T"}, kv.Get("tree"))
	assert.Equal(t, []string{"P"}, kv.Get("parent"))
	assert.Equal(t, []string{"A <a@b> 0 +0000"}, kv.Get("author"))
	assert.Equal(t, "msg\n", kv.Message)

	assert.Equal(t, raw, string(kv.Marshal()))
}

func TestParseKVLMRepeatedKeys(t *testing.T) {
	raw := "tree T\nparent P1\nparent P2\nauthor A\n\nmerge\n"

	kv, err := ParseKVLM([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, kv.Get("parent"))
	assert.Equal(t, []string{"tree", "parent", "author"}, kv.Keys())
	assert.Equal(t, raw, string(kv.Marshal()))
}

func TestParseKVLMContinuationLines(t *testing.T) {
	raw := "tree T\n" +
		"gpgsig -----BEGIN PGP SIGNATURE-----\n" +
		" \n" +
		" iQEcBAABAgAGBQJ\n" +
		" -----END PGP SIGNATURE-----\n" +
		"author A\n" +
		"\n" +
		"signed\n"

	kv, err := ParseKVLM([]byte(raw))
	require.NoError(t, err)

	sig, ok := kv.First("gpgsig")
	require.True(t, ok)
	assert.Equal(t, "-----BEGIN PGP SIGNATURE-----\n\niQEcBAABAgAGBQJ\n-----END PGP SIGNATURE-----", sig)
	assert.Equal(t, []string{"A"}, kv.Get("author"))
	assert.Equal(t, raw, string(kv.Marshal()))
}

func TestParseKVLMMessageOnly(t *testing.T) {
	cases := map[string]struct {
		raw     string
		message string
	}{
		"no space":          {raw: "justtext\nmore words here", message: "justtext\nmore words here"},
		"newline before sp": {raw: "a\nb c", message: "a\nb c"},
		"no newline":        {raw: "key value", message: "key value"},
		"empty":             {raw: "", message: ""},
		"blank first line":  {raw: "\nbody", message: "body"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			kv, err := ParseKVLM([]byte(tc.raw))
			require.NoError(t, err)
			assert.Empty(t, kv.Keys())
			assert.Equal(t, tc.message, kv.Message)
		})
	}
}

func TestParseKVLMDegenerateAfterFields(t *testing.T) {
	kv, err := ParseKVLM([]byte("tree T\ngarbage\n\nmsg"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, kv.Get("tree"))
	assert.Equal(t, "garbage\n\nmsg", kv.Message)

	again, err := ParseKVLM(kv.Marshal())
	require.NoError(t, err)
	assert.Equal(t, kv.Marshal(), again.Marshal())
}

func TestParseKVLMFieldsWithoutMessage(t *testing.T) {
	kv, err := ParseKVLM([]byte("tree T\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, kv.Get("tree"))
	assert.Equal(t, "", kv.Message)
	assert.Equal(t, "tree T\n\n", string(kv.Marshal()))
}

func TestParseKVLMRejectsInvalidUTF8(t *testing.T) {
	_, err := ParseKVLM([]byte("tree \xff\xfe\n\nmsg"))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestKVLMMarshalWrapsNewlines(t *testing.T) {
	kv := NewKVLM()
	kv.Add("tree", "T")
	kv.Add("note", "line one\nline two")
	kv.Message = "body"

	assert.Equal(t, "tree T\nnote line one\n line two\n\nbody", string(kv.Marshal()))
}

func TestKVLMSetKeepsOrder(t *testing.T) {
	kv := NewKVLM()
	kv.Add("a", "1")
	kv.Add("b", "2")
	kv.Set("a", "x", "y")
	kv.Set("c", "3")

	assert.Equal(t, []string{"a", "b", "c"}, kv.Keys())
	assert.Equal(t, []string{"x", "y"}, kv.Get("a"))
	assert.True(t, kv.Has("c"))
	assert.False(t, kv.Has("d"))
}

func TestCommitAccessors(t *testing.T) {
	obj, err := Decode(TypeCommit, []byte("tree T\nparent P1\nparent P2\n\nhi\n"))
	require.NoError(t, err)
	c := obj.(*Commit)

	tree, err := c.TreeHash()
	require.NoError(t, err)
	assert.Equal(t, Hash("T"), tree)
	assert.Equal(t, []Hash{"P1", "P2"}, c.Parents())
	assert.Equal(t, "hi\n", c.Message())

	empty := &Commit{}
	_, err = empty.TreeHash()
	assert.ErrorIs(t, err, ErrMissingData)
}

func TestTagTarget(t *testing.T) {
	obj, err := Decode(TypeTag, []byte("object O\ntype commit\ntag v1\ntagger T\n\nrelease\n"))
	require.NoError(t, err)

	target, typ, err := obj.(*Tag).Target()
	require.NoError(t, err)
	assert.Equal(t, Hash("O"), target)
	assert.Equal(t, TypeCommit, typ)

	_, _, err = (&Tag{}).Target()
	assert.ErrorIs(t, err, ErrMissingData)
}
