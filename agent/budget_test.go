package agent_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"deepagent/agent"
)

func TestBudgetNeverOverdraws(t *testing.T) {
	b := agent.NewBudget(10)

	var taken atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b.Take() {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), taken.Load())
	assert.Equal(t, 0, b.Remaining())
	assert.False(t, b.Take())
}

func TestBudgetZero(t *testing.T) {
	b := agent.NewBudget(0)
	assert.False(t, b.Take())
}
