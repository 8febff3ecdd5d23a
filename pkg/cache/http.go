package cache

import (
	"bytes"
	"net/http"
)

// HeaderCache carries the hit/miss marker on GET responses.
const HeaderCache = "X-Cache"

// Marker values for HeaderCache.
const (
	MarkerHit  = "HIT"
	MarkerMiss = "MISS"
)

// responseRecorder sits between a downstream handler and the real
// ResponseWriter on a cache miss. Bytes pass straight through; the body is
// also teed into a buffer so the final status and body can be stored once
// the handler returns.
type responseRecorder struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
	body        bytes.Buffer
	maxBody     int
	overflow    bool
}

func newResponseRecorder(w http.ResponseWriter, maxBody int) *responseRecorder {
	return &responseRecorder{
		ResponseWriter: w,
		status:         http.StatusOK,
		maxBody:        maxBody,
	}
}

// WriteHeader records the status and stamps the miss marker before the
// headers leave the process. Informational 1xx statuses are forwarded
// without being recorded; only the final status is kept.
func (r *responseRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	if isInformational(status) {
		r.ResponseWriter.WriteHeader(status)
		return
	}
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.Header().Set(HeaderCache, MarkerMiss)
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(data)
	if IsCacheable(r.status) && !r.overflow {
		if r.maxBody > 0 && r.body.Len()+n > r.maxBody {
			r.overflow = true
			r.body.Reset()
		} else {
			r.body.Write(data[:n])
		}
	}
	return n, err
}

// Flush forwards to the underlying writer when it supports streaming.
func (r *responseRecorder) Flush() {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// finish stamps the miss marker on responses whose handler wrote nothing;
// net/http still sends the headers after the handler returns.
func (r *responseRecorder) finish() {
	if !r.wroteHeader {
		r.ResponseWriter.Header().Set(HeaderCache, MarkerMiss)
	}
}

// isInformational reports whether status is an interim 1xx response that
// is followed by the final one. 101 ends the HTTP exchange and counts as
// final.
func isInformational(status int) bool {
	return status >= 100 && status < 200 && status != http.StatusSwitchingProtocols
}

// writeCached replays a cached response.
func writeCached(w http.ResponseWriter, entry *CachedResponse) {
	w.Header().Set(HeaderCache, MarkerHit)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(entry.StatusCode())
	w.Write(entry.Body)
}
