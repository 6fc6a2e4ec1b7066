package values

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizedURL represents a URL reduced to its canonical identity form.
// Two URLs that differ only in case of scheme/host, default port, query
// string, or fragment normalize to the same value, so it is safe to use
// as a cache key and as a tab-navigation identity.
type NormalizedURL struct {
	value string
	host  string
}

// NormalizeURL creates a NormalizedURL from a raw URL string with validation.
// Only http and https URLs are accepted. Normalization is idempotent:
// normalizing an already-normalized URL yields the same value.
func NormalizeURL(raw string) (NormalizedURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NormalizedURL{}, fmt.Errorf("url cannot be empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return NormalizedURL{}, fmt.Errorf("invalid url format: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return NormalizedURL{}, fmt.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return NormalizedURL{}, fmt.Errorf("url has no host")
	}

	// Keep only non-default ports.
	port := parsed.Port()
	if port != "" && !isDefaultPort(scheme, port) {
		host = host + ":" + port
	}

	// Query, fragment, and userinfo carry no identity for risk purposes.
	// A trailing slash on the path is noise as well: "/login/" and
	// "/login" are the same page for our purposes, as are "/" and "".
	path := strings.TrimRight(parsed.EscapedPath(), "/")

	return NormalizedURL{
		value: scheme + "://" + host + path,
		host:  host,
	}, nil
}

// MustNormalizeURL creates a NormalizedURL and panics on error (for tests).
func MustNormalizeURL(raw string) NormalizedURL {
	u, err := NormalizeURL(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// String returns the normalized URL string.
func (u NormalizedURL) String() string {
	return u.value
}

// Host returns the normalized host (including any non-default port).
func (u NormalizedURL) Host() string {
	return u.host
}

// Hostname returns the normalized host without any port.
func (u NormalizedURL) Hostname() string {
	if i := strings.IndexByte(u.host, ':'); i >= 0 {
		return u.host[:i]
	}
	return u.host
}

// RegistrableDomain returns the domain used for registry comparisons:
// the hostname with a leading "www." stripped.
func (u NormalizedURL) RegistrableDomain() string {
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// IsEmpty checks if the URL is the zero value.
func (u NormalizedURL) IsEmpty() bool {
	return u.value == ""
}

// Equal checks if two NormalizedURL values are equal.
func (u NormalizedURL) Equal(other NormalizedURL) bool {
	return u.value == other.value
}
