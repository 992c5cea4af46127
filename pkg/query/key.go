package query

import (
	"net/url"
	"strings"
)

// Key identifies a cached query. Keys are compared segment by segment.
type Key []string

// String encodes the key for storage. Segments are path-escaped so that
// a key is a prefix of another only on segment boundaries.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// HasPrefix reports whether prefix matches the first segments of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// ParseKey decodes a string produced by Key.String.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return Key{}, nil
	}
	parts := strings.Split(s, "/")
	out := make(Key, len(parts))
	for i, p := range parts {
		v, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
