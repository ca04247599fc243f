package object

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/pjbgf/sha1cd"
)

// Envelope returns the stored form of an object before compression:
// "type len\0payload".
func Envelope(objType ObjectType, data []byte) []byte {
	header := string(objType) + " " + strconv.Itoa(len(data)) + "\x00"
	out := make([]byte, 0, len(header)+len(data))
	out = append(out, header...)
	return append(out, data...)
}

// HashObject computes the SHA-1 of the envelope "type len\0content".
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1cd.New()
	h.Write(Envelope(objType, data))
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ComputeHash serializes obj and returns the identifier it would be stored
// under, without touching any store.
func ComputeHash(obj Object) (Hash, error) {
	data, err := obj.Serialize()
	if err != nil {
		return "", err
	}
	return HashObject(obj.Type(), data), nil
}

// HashFile reads path, builds an object of type t from its bytes and
// returns its identifier. The object is persisted only when s is non-nil.
func HashFile(path string, t ObjectType, s *Store) (Hash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: hash %s: %w", ErrIO, path, err)
	}
	obj, err := Decode(t, data)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	if s == nil {
		return ComputeHash(obj)
	}
	return s.Write(obj)
}
