package safeurl

import (
	"net/url"
	"strings"
)

// IsHTTPOrHTTPS returns true if u is a valid URL with scheme http or https.
// Used to reject file://, ftp://, and other schemes that could lead to SSRF or
// local file access through the transport relay.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	s := parsed.Scheme
	return s == "http" || s == "https"
}

// IsInsecure returns true if u uses the plain http scheme. Prefix check is
// case-insensitive; URL schemes are case-insensitive per RFC 3986.
func IsInsecure(u string) bool {
	return len(u) >= 7 && strings.EqualFold(u[:7], "http://")
}

// RewriteInsecure routes a plain-http source through the given proxy endpoint
// so it is re-served over https. Secure (and non-http) sources pass through
// unchanged: the host runtime only blocks mixed-content loads, not https ones.
func RewriteInsecure(proxyEndpoint, source string) string {
	if !IsInsecure(source) {
		return source
	}
	return proxyEndpoint + "?url=" + url.QueryEscape(source)
}
