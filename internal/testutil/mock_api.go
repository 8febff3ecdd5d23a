// Package testutil provides testing utilities for the projecthub gateway.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockAPIResponse defines the behavior for a mock API endpoint response.
type MockAPIResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable stand-in for the business API. It can be used
// directly as an http.Handler or started as an httptest server.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	requests map[string]int
	total    int
}

// NewMockAPI creates a mock API with the default project routes:
//
//	GET  /api/project/123  -> 200 {"id":"123"}
//	GET  /api/project/999  -> 404 {"message":"project not found"}
//	POST /api/project      -> 201 {"id":"124"}
//	GET  /api/auth/login   -> 200 {"authenticated":false}
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		requests: make(map[string]int),
	}

	mock.SetResponse(http.MethodGet, "/api/project/123", NewJSONResponse(http.StatusOK, `{"id":"123"}`))
	mock.SetResponse(http.MethodGet, "/api/project/999", NewJSONResponse(http.StatusNotFound, `{"message":"project not found"}`))
	mock.SetResponse(http.MethodPost, "/api/project", NewJSONResponse(http.StatusCreated, `{"id":"124"}`))
	mock.SetResponse(http.MethodGet, "/api/auth/login", NewJSONResponse(http.StatusOK, `{"authenticated":false}`))

	return mock
}

// ServeHTTP dispatches to the handler registered for method and path.
func (m *MockAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path

	m.mu.Lock()
	m.requests[route]++
	m.total++
	handler, exists := m.handlers[route]
	m.mu.Unlock()

	if !exists {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"404 : API not found"}`))
		return
	}
	handler(w, r)
}

// Start serves the mock API on a local httptest server and returns its URL.
func (m *MockAPI) Start() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		m.server = httptest.NewServer(m)
	}
	return m.server.URL
}

// Close shuts down the server started by Start.
func (m *MockAPI) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server != nil {
		m.server.Close()
		m.server = nil
	}
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]int)
	m.total = 0
}

// SetHandler sets a custom handler for a method and path.
func (m *MockAPI) SetHandler(method, path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// SetResponse configures a simple response for a method and path.
func (m *MockAPI) SetResponse(method, path string, resp MockAPIResponse) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns how many requests reached method and path.
func (m *MockAPI) RequestCount(method, path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[method+" "+path]
}

// TotalRequests returns the number of requests that reached the API.
func (m *MockAPI) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// NewJSONResponse creates a JSON response with the given status.
func NewJSONResponse(status int, body string) MockAPIResponse {
	return MockAPIResponse{
		StatusCode: status,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewTextResponse creates a plain text response, which the cache cannot store.
func NewTextResponse(status int, body string) MockAPIResponse {
	return MockAPIResponse{
		StatusCode: status,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockAPIResponse {
	return NewJSONResponse(http.StatusInternalServerError, `{"message":"Internal server error"}`)
}
