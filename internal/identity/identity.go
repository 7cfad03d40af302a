// file: internal/identity/identity.go
// version: 1.0.0
// guid: 7c2d9e4f-1a5b-4c8d-9e0f-2b6a3d7c1e8f

package identity

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"github.com/jdfalk/abs-meta/internal/models"
)

// Fingerprint derives the deterministic cache key for a search request.
// The query fields and path parameters are merged into a single map,
// serialized with sorted keys and fixed separators, and hashed together
// with the provider name. Keys and values are escaped so the separators
// never occur in the data and the serialization stays injective. Absent
// fields are omitted entirely, so two requests differing only in unset
// optional fields hash identically.
func Fingerprint(provider string, query models.SearchQuery, pathParams map[string]string) string {
	merged := make(map[string]string, 4+len(pathParams))
	if query.Query != "" {
		merged["query"] = query.Query
	}
	if query.Author != "" {
		merged["author"] = query.Author
	}
	if query.Type != "" {
		merged["type"] = query.Type
	}
	if query.ISBN != "" {
		merged["isbn"] = query.ISBN
	}
	for k, v := range pathParams {
		if v != "" {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(provider)
	b.WriteByte(':')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(merged[k]))
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// BookID returns the canonical book row id for a provider-native identifier.
func BookID(provider, providerID string) string {
	return provider + ":" + providerID
}

// ContentID derives a fallback identity from descriptive fields when no
// native identifier exists. Present fields are trimmed, joined in fixed
// order, lowercased and hashed. Absent fields are skipped rather than
// represented as empty placeholders, so records differing only in which
// optional fields are populated intentionally get different ids.
func ContentID(title, subtitle, author, publisher string) string {
	components := make([]string, 0, 4)
	for _, c := range []string{title, subtitle, author, publisher} {
		c = strings.TrimSpace(c)
		if c != "" {
			components = append(components, c)
		}
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.Join(components, "|"))))
	return hex.EncodeToString(sum[:])
}
