package logging

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// maxLoggedBody is the largest request or response body included in a
// request log line. Larger bodies are omitted.
const maxLoggedBody = 16 << 10

// RequestLogger logs every completed request with method, target, status,
// duration and the X-Cache marker. JSON request and response bodies are
// included with SensitiveKeys redacted. Use NewLogger("http") for logger.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqBody := readRequestBody(r)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			event := logger.Info().
				Str("method", r.Method).
				Str("url", r.RequestURI).
				Int("status", sw.status).
				Int("bytes", sw.written).
				Dur("duration", time.Since(start))

			if marker := w.Header().Get("X-Cache"); marker != "" {
				event = event.Str("cache", marker)
			}
			if reqBody != nil {
				event = event.RawJSON("request_body", Redact(reqBody))
			}
			if body := sw.loggedBody(); body != nil {
				event = event.RawJSON("response_body", Redact(body))
			}
			event.Msg("Request completed")
		})
	}
}

// readRequestBody returns a small JSON request body for logging and
// restores r.Body for downstream handlers.
func readRequestBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody || !isJSON(r.Header.Get("Content-Type")) {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), r.Body), r.Body}
	if err != nil || len(data) > maxLoggedBody || !gjson.ValidBytes(data) {
		return nil
	}
	return data
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}

type statusWriter struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
	written     int
	body        bytes.Buffer
	truncated   bool
}

func (w *statusWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	// Interim 1xx responses precede the final status.
	if status >= 100 && status < 200 && status != http.StatusSwitchingProtocols {
		w.ResponseWriter.WriteHeader(status)
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(data)
	w.written += n
	if !w.truncated {
		if w.body.Len()+n > maxLoggedBody {
			w.truncated = true
			w.body.Reset()
		} else {
			w.body.Write(data[:n])
		}
	}
	return n, err
}

func (w *statusWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) loggedBody() []byte {
	if w.truncated || w.body.Len() == 0 || !isJSON(w.Header().Get("Content-Type")) {
		return nil
	}
	if !gjson.ValidBytes(w.body.Bytes()) {
		return nil
	}
	return w.body.Bytes()
}
