package agent

import "sync/atomic"

// Budget is the shared step counter that bounds one task invocation,
// including every nested subagent loop. It is the loop's only liveness
// guarantee: model outputs are not under this system's control, so the
// budget forces termination. A single Budget is shared across all nesting
// depths; exhaustion anywhere truncates everywhere.
type Budget struct {
	remaining atomic.Int64
}

// NewBudget creates a budget allowing n model turns.
func NewBudget(n int) *Budget {
	b := &Budget{}
	b.remaining.Store(int64(n))
	return b
}

// Take consumes one step. It returns false once the budget is exhausted;
// concurrent callers never overdraw.
func (b *Budget) Take() bool {
	for {
		cur := b.remaining.Load()
		if cur <= 0 {
			return false
		}
		if b.remaining.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Remaining returns the number of steps left.
func (b *Budget) Remaining() int {
	return int(b.remaining.Load())
}
