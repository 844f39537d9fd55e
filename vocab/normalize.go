package vocab

import (
	"net/url"
	"strings"
)

// NormalizeURI canonicalizes a URI for alias-index comparison: scheme and
// host are lower-cased, the trailing slash is stripped, and any query or
// fragment is dropped. Path case is preserved (paths are case-sensitive in
// most vocabulary hosts).
//
// Unparsable input falls back to trimmed, slash-stripped comparison so a
// malformed alias never panics the index build.
func NormalizeURI(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(trimmed, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""

	return strings.TrimSuffix(u.String(), "/")
}
