package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseTarget validates raw as an absolute http(s) URL with a host.
// The returned URL has a lowercase scheme and host and no fragment.
func ParseTarget(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, trimmed)
	}
	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed, nil
}

// resolveAgainst returns the final page URL, falling back to the target.
func resolveAgainst(page Page, target *url.URL) *url.URL {
	if page.URL == "" {
		return target
	}
	final, err := url.Parse(page.URL)
	if err != nil || !final.IsAbs() {
		return target
	}
	return final
}
