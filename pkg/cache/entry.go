package cache

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// CachedResponse is the value stored for a cached GET response.
type CachedResponse struct {
	// Status is the HTTP status code returned by the downstream handler.
	Status int `json:"status"`

	// Body is the JSON response body, stored verbatim.
	Body json.RawMessage `json:"body"`
}

// NewCachedResponse builds an entry from a captured response. It returns
// ErrNotJSON when body is not a JSON document.
func NewCachedResponse(status int, body []byte) (*CachedResponse, error) {
	if !json.Valid(body) {
		return nil, ErrNotJSON
	}
	raw := make(json.RawMessage, len(body))
	copy(raw, body)
	return &CachedResponse{Status: status, Body: raw}, nil
}

// StatusCode returns the status to replay, defaulting to 200 when the
// stored status is missing.
func (e *CachedResponse) StatusCode() int {
	if e.Status == 0 {
		return http.StatusOK
	}
	return e.Status
}

// IsCacheable reports whether a response with this status may be stored.
// Only 2xx responses are cached.
func IsCacheable(status int) bool {
	return status >= 200 && status < 300
}

func encodeEntry(entry *CachedResponse) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*CachedResponse, error) {
	var entry CachedResponse
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if len(entry.Body) == 0 {
		return nil, fmt.Errorf("%w: missing body", ErrInvalidEntry)
	}
	return &entry, nil
}
