package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/willothy/wit/pkg/object"
)

// ErrTagExists is returned when creating a tag that already exists without
// force.
var ErrTagExists = errors.New("tag already exists")

// CreateTag creates or updates a lightweight tag ref under refs/tags/.
func (r *Repo) CreateTag(name string, target object.Hash, force bool) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if !r.Store.Has(target) {
		return fmt.Errorf("create tag: %w: target %q is not in the store", ErrUnknownRef, target)
	}

	refName := "refs/tags/" + name
	if !force && r.refExists(refName) {
		return fmt.Errorf("create tag: %w: %q", ErrTagExists, name)
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// CreateAnnotatedTag stores a tag object with object, type, tag and tagger
// fields and the given message, then points refs/tags/<name> at it.
func (r *Repo) CreateAnnotatedTag(name string, target object.Hash, tagger, message string, force bool) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	tagger = strings.TrimSpace(tagger)
	if tagger == "" {
		tagger = "unknown"
	}

	targetType, _, err := r.Store.ReadRaw(target)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: read target %s: %w", target, err)
	}

	refName := "refs/tags/" + name
	if !force && r.refExists(refName) {
		return "", fmt.Errorf("create annotated tag: %w: %q", ErrTagExists, name)
	}

	tag := &object.Tag{KVLM: object.NewKVLM()}
	tag.KVLM.Add("object", string(target))
	tag.KVLM.Add("type", string(targetType))
	tag.KVLM.Add("tag", name)
	tag.KVLM.Add("tagger", Signature(tagger, time.Now()))
	tag.KVLM.Message = ensureTrailingNewline(message)

	tagHash, err := r.Store.Write(tag)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: write tag object: %w", err)
	}
	if err := r.UpdateRef(refName, tagHash); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	return tagHash, nil
}

// DeleteTag removes a tag ref from refs/tags/.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	if err := os.Remove(r.Path(append([]string{"refs", "tags"}, strings.Split(name, "/")...)...)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete tag: %w: %q", ErrUnknownRef, name)
		}
		return fmt.Errorf("%w: delete tag: %w", object.ErrIO, err)
	}
	return nil
}

// ListTags lists tags in name order with the hash each ref holds.
func (r *Repo) ListTags() ([]NamedRef, error) {
	if _, err := os.Stat(r.Path("refs", "tags")); os.IsNotExist(err) {
		return nil, nil
	}
	tags, err := r.listRefDir("refs/tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags.Flatten(""), nil
}

func (r *Repo) refExists(name string) bool {
	info, err := os.Stat(r.Path(strings.Split(name, "/")...))
	return err == nil && !info.IsDir()
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if err := validateRefName("refs/tags/" + name); err != nil {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}

// Signature formats an identity line as stored in author, committer and
// tagger fields: "Name <email> <unix seconds> <+hhmm>".
func Signature(identity string, t time.Time) string {
	return fmt.Sprintf("%s %d %s", identity, t.Unix(), formatTimezoneOffset(t))
}

func formatTimezoneOffset(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := offset / 3600
	minutes := (offset % 3600) / 60
	return fmt.Sprintf("%s%02d%02d", sign, hours, minutes)
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
