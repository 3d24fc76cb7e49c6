package msmtest

import (
	"github.com/getmockd/msm/pkg/definition"
)

// MockBuilder builds a JSON definition and registers it as an override.
type MockBuilder struct {
	server *Server
	method string
	url    string
	def    definition.JSONDefinition
	once   bool
}

// Mock starts building an override for method and url. The response
// defaults to 200 with a null body.
func (s *Server) Mock(method, url string) *MockBuilder {
	return &MockBuilder{server: s, method: method, url: url}
}

// WithStatus sets the response status code.
func (b *MockBuilder) WithStatus(code int) *MockBuilder {
	b.def.Code = code
	return b
}

// WithBody sets the response body. It is encoded as JSON.
func (b *MockBuilder) WithBody(body any) *MockBuilder {
	b.def.Body = body
	return b
}

// WithHeader sets a response header.
func (b *MockBuilder) WithHeader(key, value string) *MockBuilder {
	if b.def.Headers == nil {
		b.def.Headers = make(map[string]*string)
	}
	b.def.Headers[key] = &value
	return b
}

// WithoutHeader removes a header the response would otherwise carry.
func (b *MockBuilder) WithoutHeader(key string) *MockBuilder {
	if b.def.Headers == nil {
		b.def.Headers = make(map[string]*string)
	}
	b.def.Headers[key] = nil
	return b
}

// Once makes the override answer a single request.
func (b *MockBuilder) Once() *MockBuilder {
	b.once = true
	return b
}

// Reply registers the override.
func (b *MockBuilder) Reply() {
	b.server.t.Helper()
	if b.once {
		b.server.Once(b.method, b.url, b.def)
		return
	}
	b.server.On(b.method, b.url, b.def)
}
