package updater

import (
	"net/url"
	"strings"
)

// escapeURL returns a cleaned http(s) URL, or an empty string for anything else.
func escapeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	u.Scheme = scheme
	return u.String()
}
