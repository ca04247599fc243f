package repo

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/willothy/wit/pkg/object"
)

var zeroHash = object.Hash(strings.Repeat("0", object.HashSize*2))

// ReflogEntry is one line of logs/<ref>:
//
//	<old> <new> <identity> <unix seconds> <+hhmm>\t<reason>
type ReflogEntry struct {
	Ref       string
	OldHash   object.Hash
	NewHash   object.Hash
	Identity  string
	Timestamp int64
	Reason    string
}

func (r *Repo) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		reason = "update"
	}

	logPath, err := r.File(true, append([]string{"logs"}, strings.Split(ref, "/")...)...)
	if err != nil {
		return fmt.Errorf("reflog: %w", err)
	}

	if oldHash == "" {
		oldHash = zeroHash
	}
	if newHash == "" {
		newHash = zeroHash
	}
	reason = strings.ReplaceAll(reason, "\n", " ")
	line := fmt.Sprintf("%s %s %s\t%s\n", oldHash, newHash, Signature(r.identity, time.Now()), reason)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: reflog open: %w", object.ErrIO, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("%w: reflog write: %w", object.ErrIO, err)
	}
	return nil
}

// ReadReflog returns the reflog of ref, newest first. A bare name is looked
// up under refs/heads/; HEAD follows its symbolic target. limit <= 0 means
// no limit. A ref without a log has no entries.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	refName := r.resolveReflogRefName(ref)

	f, err := os.Open(r.Path(append([]string{"logs"}, strings.Split(refName, "/")...)...))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read reflog: %w", object.ErrIO, err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if e, ok := parseReflogLine(refName, scanner.Text()); ok {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read reflog: %w", object.ErrIO, err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func parseReflogLine(ref, line string) (ReflogEntry, bool) {
	head, reason, _ := strings.Cut(line, "\t")
	parts := strings.SplitN(head, " ", 3)
	if len(parts) < 3 {
		return ReflogEntry{}, false
	}
	// parts[2] is "<identity> <seconds> <tz>"; the identity may hold spaces.
	sig := strings.Fields(parts[2])
	if len(sig) < 2 {
		return ReflogEntry{}, false
	}
	ts, err := strconv.ParseInt(sig[len(sig)-2], 10, 64)
	if err != nil {
		return ReflogEntry{}, false
	}
	return ReflogEntry{
		Ref:       ref,
		OldHash:   object.Hash(parts[0]),
		NewHash:   object.Hash(parts[1]),
		Identity:  strings.Join(sig[:len(sig)-2], " "),
		Timestamp: ts,
		Reason:    reason,
	}, true
}

func (r *Repo) resolveReflogRefName(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "HEAD" {
		head, err := r.Head()
		if err == nil && strings.HasPrefix(head, "refs/") {
			return head
		}
		return "HEAD"
	}
	if strings.HasPrefix(ref, "refs/") {
		return ref
	}
	return "refs/heads/" + ref
}
