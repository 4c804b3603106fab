package scout

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// YouTube Data API v3 unit costs. search.list is the expensive one: a
// single call burns 1% of the default 10k daily allowance.
const (
	CostSearch       = 100
	CostChannelsList = 1
	CostVideosList   = 1
)

// ErrQuotaExhausted means the run's unit budget cannot cover the next call.
// Callers stop issuing paid calls and finish the run with local work.
var ErrQuotaExhausted = errors.New("youtube quota budget exhausted")

// Budget tracks the API unit allowance for one run. The counter is
// process-lifetime state, never persisted: quota resets daily at Google's
// end, so each invocation starts from the configured allowance.
type Budget struct {
	remaining atomic.Int64
	spent     atomic.Int64
}

// NewBudget creates a budget with the given unit allowance.
func NewBudget(units int64) *Budget {
	b := &Budget{}
	b.remaining.Store(units)
	return b
}

// Spend reserves cost units before a paid call. Returns ErrQuotaExhausted
// without spending anything when the remainder cannot cover the cost.
// CAS loop so concurrent spenders never overdraw.
func (b *Budget) Spend(cost int64) error {
	for {
		rem := b.remaining.Load()
		if rem < cost {
			return fmt.Errorf("%w: need %d units, %d left", ErrQuotaExhausted, cost, rem)
		}
		if b.remaining.CompareAndSwap(rem, rem-cost) {
			b.spent.Add(cost)
			MetricQuotaSpent.Add(cost)
			return nil
		}
	}
}

// Remaining returns the unspent units of this run.
func (b *Budget) Remaining() int64 { return b.remaining.Load() }

// Spent returns the units consumed so far.
func (b *Budget) Spent() int64 { return b.spent.Load() }

// Drain empties the budget. Used when the API itself reports quota
// exhaustion (403); local accounting may lag the daily upstream counter.
func (b *Budget) Drain() {
	for {
		rem := b.remaining.Load()
		if rem <= 0 {
			return
		}
		if b.remaining.CompareAndSwap(rem, 0) {
			return
		}
	}
}
