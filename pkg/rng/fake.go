package rng

import "sync"

// Fake replays scripted draws. NextInt returns the queued values in order
// (reduced modulo bound) and 0 once the script runs out. Shuffle leaves the
// sequence untouched so decks deal in construction order.
type Fake struct {
	mu    sync.Mutex
	ints  []int
	calls int
}

// NewFake creates a Fake that will return ints in order
func NewFake(ints ...int) *Fake {
	return &Fake{ints: ints}
}

// Push appends more scripted values
func (f *Fake) Push(ints ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ints = append(f.ints, ints...)
}

// Calls reports how many NextInt draws were made
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// NextInt implements Source
func (f *Fake) NextInt(bound int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.ints) == 0 || bound <= 0 {
		return 0
	}
	v := f.ints[0]
	f.ints = f.ints[1:]
	return ((v % bound) + bound) % bound
}

// Shuffle implements Source
func (f *Fake) Shuffle(n int, swap func(i, j int)) {}
