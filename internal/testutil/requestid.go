package testutil

// FixedRequestID generates the same request id every time.
//
// Report pages and log lines carry request ids. With a fixed id, the same
// scenario produces byte-identical output, which golden files rely on.
//
// Thread-safety: FixedRequestID is stateless and safe for concurrent use.
type FixedRequestID struct {
	id string
}

// NewFixedRequestID creates a fixed request id generator.
// If id is empty, Generate() returns "test-request".
func NewFixedRequestID(id string) *FixedRequestID {
	if id == "" {
		id = "test-request"
	}
	return &FixedRequestID{id: id}
}

// Generate returns the fixed id.
//
// Implements report.RequestIDGenerator.
func (g *FixedRequestID) Generate() string {
	return g.id
}
