package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willothy/wit/pkg/object"
)

func TestLightweightTag(t *testing.T) {
	r := newTestRepo(t)
	c := commitFile(t, r, "a", "a")

	require.NoError(t, r.CreateTag("v1.0", c, false))
	h, err := r.ResolveRef("refs/tags/v1.0")
	require.NoError(t, err)
	assert.Equal(t, c, h)

	err = r.CreateTag("v1.0", c, false)
	assert.ErrorIs(t, err, ErrTagExists)

	c2 := commitFile(t, r, "b", "b")
	require.NoError(t, r.CreateTag("v1.0", c2, true))
	h, err = r.ResolveRef("refs/tags/v1.0")
	require.NoError(t, err)
	assert.Equal(t, c2, h)
}

func TestTagUnknownTarget(t *testing.T) {
	r := newTestRepo(t)
	err := r.CreateTag("v1", object.Hash("0123456789abcdef0123456789abcdef01234567"), false)
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestTagInvalidName(t *testing.T) {
	r := newTestRepo(t)
	c := commitFile(t, r, "a", "a")
	assert.Error(t, r.CreateTag("", c, false))
	assert.Error(t, r.CreateTag("bad name", c, false))
	assert.Error(t, r.CreateTag("../escape", c, false))
}

func TestAnnotatedTag(t *testing.T) {
	r := newTestRepo(t)
	c := commitFile(t, r, "a", "a")

	tagHash, err := r.CreateAnnotatedTag("v2", c, "Rel Eng <rel@example.com>", "second release", false)
	require.NoError(t, err)

	tag, err := r.Store.ReadTag(tagHash)
	require.NoError(t, err)
	target, typ, err := tag.Target()
	require.NoError(t, err)
	assert.Equal(t, c, target)
	assert.Equal(t, object.TypeCommit, typ)

	name, ok := tag.KVLM.First("tag")
	require.True(t, ok)
	assert.Equal(t, "v2", name)
	tagger, ok := tag.KVLM.First("tagger")
	require.True(t, ok)
	assert.Contains(t, tagger, "Rel Eng <rel@example.com> ")
	assert.Equal(t, "second release\n", tag.KVLM.Message)
	assert.Equal(t, []string{"object", "type", "tag", "tagger"}, tag.KVLM.Keys())

	_, err = r.CreateAnnotatedTag("v2", c, "x", "again", false)
	assert.ErrorIs(t, err, ErrTagExists)
}

func TestListAndDeleteTags(t *testing.T) {
	r := newTestRepo(t)
	c := commitFile(t, r, "a", "a")

	tags, err := r.ListTags()
	require.NoError(t, err)
	assert.Empty(t, tags)

	require.NoError(t, r.CreateTag("b", c, false))
	require.NoError(t, r.CreateTag("a", c, false))
	require.NoError(t, r.CreateTag("rel/1", c, false))

	tags, err = r.ListTags()
	require.NoError(t, err)
	assert.Equal(t, []NamedRef{{"a", c}, {"b", c}, {"rel/1", c}}, tags)

	require.NoError(t, r.DeleteTag("a"))
	assert.ErrorIs(t, r.DeleteTag("a"), ErrUnknownRef)

	tags, err = r.ListTags()
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestSignature(t *testing.T) {
	east := time.FixedZone("east", 5*3600+30*60)
	west := time.FixedZone("west", -7*3600)
	ts := time.Unix(1700000000, 0)

	assert.Equal(t, "A <a@x> 1700000000 +0530", Signature("A <a@x>", ts.In(east)))
	assert.Equal(t, "A <a@x> 1700000000 -0700", Signature("A <a@x>", ts.In(west)))
	assert.Equal(t, "A <a@x> 1700000000 +0000", Signature("A <a@x>", ts.UTC()))
}
