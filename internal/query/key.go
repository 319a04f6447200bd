package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Key identifies a cached resource, e.g. Key{"posts"} or Key{"posts", "7"}.
type Key []string

// Hash returns a deterministic identifier for the key.
// Two keys with the same segments in the same order hash identically.
func (k Key) Hash() string {
	data, _ := json.Marshal([]string(k))
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// String renders the key for logs.
func (k Key) String() string {
	return "[" + strings.Join(k, " ") + "]"
}

// HasPrefix reports whether k starts with every segment of prefix.
// An empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, seg := range prefix {
		if k[i] != seg {
			return false
		}
	}
	return true
}

func (k Key) validate() error {
	if len(k) == 0 {
		return ErrInvalidKey
	}
	return nil
}
