package monitor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStopControllerStartsClear(t *testing.T) {
	var s StopController
	assert.False(t, s.ShouldStop())
}

func TestRequestStopIsIdempotent(t *testing.T) {
	var s StopController
	for i := 0; i < 5; i++ {
		s.RequestStop()
		assert.True(t, s.ShouldStop())
	}
}

func TestRequestStopFromManyGoroutines(t *testing.T) {
	var s StopController
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RequestStop()
		}()
	}
	wg.Wait()
	assert.True(t, s.ShouldStop())
}
