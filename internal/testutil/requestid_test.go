package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRequestID_ReturnsSameID(t *testing.T) {
	gen := NewFixedRequestID("req-123")

	assert.Equal(t, "req-123", gen.Generate())
	assert.Equal(t, "req-123", gen.Generate())
}

func TestFixedRequestID_EmptyIDDefault(t *testing.T) {
	assert.Equal(t, "test-request", NewFixedRequestID("").Generate())
}

func TestFixedRequestID_ThreadSafe(t *testing.T) {
	gen := NewFixedRequestID("shared")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "shared", gen.Generate())
			}
		}()
	}
	wg.Wait()
}
