package graph

// TimeSeries is a fixed-capacity ring buffer of integer samples. Once full,
// each Push overwrites the oldest sample.
type TimeSeries struct {
	data  []int
	head  int
	count int
}

// NewTimeSeries creates a series that holds up to capacity samples.
func NewTimeSeries(capacity int) *TimeSeries {
	if capacity < 1 {
		capacity = 1
	}
	return &TimeSeries{data: make([]int, capacity)}
}

// Push appends a sample.
func (t *TimeSeries) Push(v int) {
	t.data[t.head] = v
	t.head = (t.head + 1) % len(t.data)
	if t.count < len(t.data) {
		t.count++
	}
}

// Len returns the number of stored samples.
func (t *TimeSeries) Len() int { return t.count }

// Cap returns the capacity.
func (t *TimeSeries) Cap() int { return len(t.data) }

// Last returns the newest sample, or 0 when empty.
func (t *TimeSeries) Last() int {
	if t.count == 0 {
		return 0
	}
	return t.data[(t.head-1+len(t.data))%len(t.data)]
}

// Values returns the samples oldest first.
func (t *TimeSeries) Values() []int {
	return t.LastN(t.count)
}

// LastN returns up to n of the newest samples, oldest first.
func (t *TimeSeries) LastN(n int) []int {
	if n > t.count {
		n = t.count
	}
	if n <= 0 {
		return []int{}
	}
	out := make([]int, n)
	start := (t.head - n + len(t.data)) % len(t.data)
	for i := 0; i < n; i++ {
		out[i] = t.data[(start+i)%len(t.data)]
	}
	return out
}

// Max returns the largest of the newest n samples.
func (t *TimeSeries) Max(n int) int {
	best := 0
	for i, v := range t.LastN(n) {
		if i == 0 || v > best {
			best = v
		}
	}
	return best
}

// Resize changes the capacity, keeping the newest samples that fit.
func (t *TimeSeries) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(t.data) {
		return
	}
	keep := t.LastN(capacity)
	t.data = make([]int, capacity)
	t.head = 0
	t.count = 0
	for _, v := range keep {
		t.Push(v)
	}
}

// Reset drops all samples.
func (t *TimeSeries) Reset() {
	t.head = 0
	t.count = 0
}
