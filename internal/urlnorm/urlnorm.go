// Package urlnorm canonicalizes recipe URLs so the same recipe imported from
// two links (tracking parameters, mixed-case host, fragments) is stored once.
package urlnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

var ErrNotAbsolute = errors.New("url must be absolute http(s)")

// trackingKeys are query parameters that never select a different recipe.
var trackingKeys = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
	"_ga":    {},
	"ref":    {},
}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// Canonicalize returns the form recipes are deduplicated under and its
// SHA-256 hex digest. Only absolute http(s) URLs are accepted.
func Canonicalize(raw string) (canonicalURL string, canonicalHash string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[u.Scheme]; !ok || u.Host == "" {
		return "", "", ErrNotAbsolute
	}
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && port != defaultPorts[u.Scheme] {
		host += ":" + port
	}
	u.Host = host
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if _, ok := trackingKeys[lower]; ok || strings.HasPrefix(lower, "utm_") {
			q.Del(key)
		}
	}
	// Encode sorts by key.
	u.RawQuery = q.Encode()
	u.ForceQuery = false

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	if u.Path == "" {
		u.Path = "/"
	}
	canonicalURL = u.String()
	h := sha256.Sum256([]byte(canonicalURL))
	return canonicalURL, hex.EncodeToString(h[:]), nil
}

// Host returns the lowercased host of raw without a leading "www.", or ""
// when raw does not parse.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
