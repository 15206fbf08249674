package sw

import "strings"

// ResolveURL makes a stored notification URL absolute against the worker's
// origin. Absolute http(s) URLs are returned untouched.
func ResolveURL(origin, raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	origin = strings.TrimRight(origin, "/")
	if strings.HasPrefix(raw, "/") {
		return origin + raw
	}
	return origin + "/" + raw
}
