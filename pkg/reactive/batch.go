package reactive

import "sync"

// batchState holds the nesting depth and the subscriptions queued while a
// batch is open.
var batchState struct {
	mu      sync.Mutex
	depth   int
	pending []*subscription
}

func inBatch() bool {
	batchState.mu.Lock()
	defer batchState.mu.Unlock()
	return batchState.depth > 0
}

func queuePending(sub *subscription) {
	batchState.mu.Lock()
	batchState.pending = append(batchState.pending, sub)
	batchState.mu.Unlock()
}

// Batch groups multiple updates into a single notification phase.
// Subscribers queued inside fn are notified once, in first-queued order,
// when the outermost batch completes.
//
// Example:
//
//	reactive.Batch(func() {
//	    appearance.Set(opt.Of("outline"))
//	    color.Set(opt.Of("primary"))
//	})
func Batch(fn func()) {
	batchState.mu.Lock()
	batchState.depth++
	batchState.mu.Unlock()

	defer func() {
		batchState.mu.Lock()
		batchState.depth--
		done := batchState.depth == 0
		var pending []*subscription
		if done {
			pending = batchState.pending
			batchState.pending = nil
		}
		batchState.mu.Unlock()

		if done {
			flush(pending)
		}
	}()

	fn()
}

// flush deduplicates and delivers queued subscriptions.
func flush(pending []*subscription) {
	seen := make(map[uint64]bool, len(pending))
	for _, sub := range pending {
		if seen[sub.key] || sub.removed.Load() {
			continue
		}
		seen[sub.key] = true
		sub.fn()
	}
}
