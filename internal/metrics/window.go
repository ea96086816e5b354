package metrics

import "sync"

// movingWindow is a fixed-capacity ring buffer of duration samples used for
// moving averages. Once full, each push overwrites the oldest sample.
type movingWindow struct {
	mu      sync.Mutex
	samples []float64
	next    int
	filled  bool
}

func newMovingWindow(capacity int) *movingWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &movingWindow{samples: make([]float64, capacity)}
}

// Push records a sample, evicting the oldest one when the window is full.
func (w *movingWindow) Push(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.next] = v
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.filled = true
	}
}

// Average returns the mean of the retained samples, or 0 when empty.
func (w *movingWindow) Average() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.next
	if w.filled {
		n = len(w.samples)
	}
	if n == 0 {
		return 0
	}

	var sum float64
	for i := range n {
		sum += w.samples[i]
	}
	return sum / float64(n)
}

// Reset discards all retained samples.
func (w *movingWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next = 0
	w.filled = false
}
