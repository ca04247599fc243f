package object

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// KVLM is the key-value-list-with-message payload shared by commits and
// tags: ordered, repeatable fields followed by a blank line and a free-text
// message.
//
//	tree 29ff16c9c14e2652b22f8b78bb08a5a07930c147
//	parent 206941306e8a8af65b66eaaaea388a7ae24d49a0
//	author Thibault Polge <thibault@thb.lt> 1527025023 +0200
//
//	Create first draft
//
// A value continues onto following lines that start with a single space.
type KVLM struct {
	keys    []string
	values  map[string][]string
	Message string
}

// NewKVLM returns an empty KVLM.
func NewKVLM() *KVLM {
	return &KVLM{values: make(map[string][]string)}
}

// Keys returns field names in first-insertion order.
func (kv *KVLM) Keys() []string {
	out := make([]string, len(kv.keys))
	copy(out, kv.keys)
	return out
}

// Has reports whether key has at least one value.
func (kv *KVLM) Has(key string) bool {
	return len(kv.values[key]) > 0
}

// Get returns the values stored under key in insertion order.
func (kv *KVLM) Get(key string) []string {
	return kv.values[key]
}

// First returns the first value stored under key.
func (kv *KVLM) First(key string) (string, bool) {
	vals := kv.values[key]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Add appends a value to key, registering key on first use.
func (kv *KVLM) Add(key, value string) {
	if kv.values == nil {
		kv.values = make(map[string][]string)
	}
	if _, ok := kv.values[key]; !ok {
		kv.keys = append(kv.keys, key)
	}
	kv.values[key] = append(kv.values[key], value)
}

// Set replaces all values of key. A new key goes to the end of the order.
func (kv *KVLM) Set(key string, values ...string) {
	if kv.values == nil {
		kv.values = make(map[string][]string)
	}
	if _, ok := kv.values[key]; !ok {
		kv.keys = append(kv.keys, key)
	}
	kv.values[key] = append([]string(nil), values...)
}

// ParseKVLM parses a commit or tag payload. A line without a space before
// its newline (or a payload without any newline) ends the field section and
// the rest of the payload becomes the message.
func ParseKVLM(data []byte) (*KVLM, error) {
	kv := NewKVLM()
	pos := 0
	for pos < len(data) {
		if data[pos] == '\n' {
			kv.Message = string(data[pos+1:])
			return kv, nil
		}

		rest := data[pos:]
		nl := bytes.IndexByte(rest, '\n')
		spc := bytes.IndexByte(rest, ' ')
		if nl < 0 || spc < 0 || nl < spc {
			kv.Message = string(rest)
			return kv, nil
		}

		// Extend end across continuation lines.
		end := nl
		for end+1 < len(rest) && rest[end+1] == ' ' {
			next := bytes.IndexByte(rest[end+1:], '\n')
			if next < 0 {
				end = len(rest)
				break
			}
			end += 1 + next
		}

		key := rest[:spc]
		raw := rest[spc+1 : end]
		if !utf8.Valid(key) || !utf8.Valid(raw) {
			return nil, fmt.Errorf("%w: field at offset %d", ErrInvalidUTF8, pos)
		}
		value := strings.ReplaceAll(string(raw), "\n ", "\n")
		kv.Add(string(key), value)

		pos += end + 1
	}
	return kv, nil
}

// Marshal serializes the fields in insertion order, wrapping embedded
// newlines as continuation lines, then a blank line and the message.
func (kv *KVLM) Marshal() []byte {
	var buf bytes.Buffer
	for _, key := range kv.keys {
		for _, v := range kv.values[key] {
			buf.WriteString(key)
			buf.WriteByte(' ')
			buf.WriteString(strings.ReplaceAll(v, "\n", "\n "))
			buf.WriteByte('\n')
		}
	}
	buf.WriteByte('\n')
	buf.WriteString(kv.Message)
	return buf.Bytes()
}
