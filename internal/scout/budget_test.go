package scout

import (
	"errors"
	"sync"
	"testing"
)

func TestBudgetSpend(t *testing.T) {
	b := NewBudget(102)

	if err := b.Spend(CostSearch); err != nil {
		t.Fatalf("first search should fit: %v", err)
	}
	if err := b.Spend(CostChannelsList); err != nil {
		t.Fatalf("channel lookup should fit: %v", err)
	}
	if got := b.Remaining(); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}

	// A search costs 100; with 1 unit left it must be refused untouched.
	err := b.Spend(CostSearch)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if got := b.Remaining(); got != 1 {
		t.Errorf("failed spend must not consume units, remaining = %d", got)
	}
	if got := b.Spent(); got != 101 {
		t.Errorf("spent = %d, want 101", got)
	}
}

func TestBudgetConcurrentSpend(t *testing.T) {
	const units = 500
	b := NewBudget(units)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := b.Spend(CostSearch); err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := b.Spent(); got != units {
		t.Errorf("concurrent spend total = %d, want exactly %d", got, units)
	}
	if got := b.Remaining(); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestBudgetDrain(t *testing.T) {
	b := NewBudget(5000)
	b.Drain()
	if got := b.Remaining(); got != 0 {
		t.Errorf("remaining after drain = %d, want 0", got)
	}
	if err := b.Spend(CostChannelsList); !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("expected ErrQuotaExhausted after drain, got %v", err)
	}
}
