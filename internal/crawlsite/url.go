package crawlsite

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL for the visited set: lowercased scheme
// and host, default ports and fragments removed, query parameters sorted.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	u.RawQuery = u.Query().Encode()

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}
