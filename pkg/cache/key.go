package cache

import "net/http"

// Key returns the cache key for a request: the request target exactly as
// received, path plus query string. Keys are case-sensitive and are not
// normalised, so "/a?x=1&y=2" and "/a?y=2&x=1" are distinct entries.
//
// Example:
//
//	/api/project/123?include=tasks
func Key(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}
