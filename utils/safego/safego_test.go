package safego

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoveryExitsOnPanic(t *testing.T) {
	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	func() {
		defer Recovery(true)
		panic("boom")
	}()

	assert.Equal(t, 1, code)
}

func TestRecoveryWithoutPanic(t *testing.T) {
	called := false
	exit = func(int) { called = true }
	t.Cleanup(func() { exit = os.Exit })

	func() {
		defer Recovery(true)
	}()

	assert.False(t, called)
}

func TestGoSurvivesPanic(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Go(func() {
		defer wg.Done()
		panic("inside goroutine")
	})
	wg.Wait()
}
