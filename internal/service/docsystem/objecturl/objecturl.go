// Package objecturl turns transient "blob:" object URLs found in a document
// into persisted data URLs, ahead of serialization.
package objecturl

import (
	"encoding/base64"
	"strings"
)

// Scheme prefixes every transient object URL.
const Scheme = "blob:"

// Substitutions maps transient object URLs to their persisted
// representation, normally a data URL.
type Substitutions map[string]string

// Lookup returns the substitute for u, if one was resolved.
func (s Substitutions) Lookup(u string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s[u]
	return v, ok
}

// IsObjectURL reports whether u is a transient object URL that must be
// substituted before it is persisted.
func IsObjectURL(u string) bool {
	return strings.HasPrefix(strings.TrimSpace(u), Scheme)
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
