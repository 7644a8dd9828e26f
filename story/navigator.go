package story

import "time"

// Policy decides what happens when navigation runs past either end.
type Policy int

const (
	// Wrap moves from the last page to the first and back.
	Wrap Policy = iota
	// Clamp stays on the boundary page and stops autoplay at the end.
	Clamp
)

const (
	DefaultInterval       = 5 * time.Second
	DefaultSwipeThreshold = 50.0
)

// Navigator tracks the current page of a viewer. Index stays within
// [0, Total-1] whenever Total > 0.
type Navigator struct {
	Total          int
	Index          int
	Policy         Policy
	Playing        bool
	Interval       time.Duration
	SwipeThreshold float64

	elapsed time.Duration
}

// NewNavigator returns a navigator positioned on the first page.
func NewNavigator(total int, policy Policy) *Navigator {
	return &Navigator{
		Total:          total,
		Policy:         policy,
		Interval:       DefaultInterval,
		SwipeThreshold: DefaultSwipeThreshold,
	}
}

// Seek moves to page i, pinned into range.
func (n *Navigator) Seek(i int) {
	n.elapsed = 0
	if n.Total <= 0 {
		n.Index = 0
		return
	}
	switch {
	case i < 0:
		n.Index = 0
	case i >= n.Total:
		n.Index = n.Total - 1
	default:
		n.Index = i
	}
}

// Next advances one page and reports whether the index changed.
func (n *Navigator) Next() bool {
	if n.Total <= 1 {
		return false
	}
	n.elapsed = 0
	if n.Index < n.Total-1 {
		n.Index++
		return true
	}
	if n.Policy == Wrap {
		n.Index = 0
		return true
	}
	return false
}

// Prev goes back one page and reports whether the index changed.
func (n *Navigator) Prev() bool {
	if n.Total <= 1 {
		return false
	}
	n.elapsed = 0
	if n.Index > 0 {
		n.Index--
		return true
	}
	if n.Policy == Wrap {
		n.Index = n.Total - 1
		return true
	}
	return false
}

// Click navigates by tap position: the left half of the stage goes back,
// the right half goes forward.
func (n *Navigator) Click(x, width float64) bool {
	if width <= 0 {
		return false
	}
	if x < width/2 {
		return n.Prev()
	}
	return n.Next()
}

// Swipe navigates on a horizontal drag of dx pixels. Dragging left past
// the threshold goes forward, dragging right goes back.
func (n *Navigator) Swipe(dx float64) bool {
	threshold := n.SwipeThreshold
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}
	switch {
	case dx <= -threshold:
		return n.Next()
	case dx >= threshold:
		return n.Prev()
	}
	return false
}

// Tick feeds elapsed time to autoplay. When a full interval has passed the
// navigator advances; under Clamp it stops playing on the last page.
func (n *Navigator) Tick(d time.Duration) bool {
	if !n.Playing || n.Total <= 0 {
		return false
	}
	interval := n.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	n.elapsed += d
	if n.elapsed < interval {
		return false
	}
	n.elapsed = 0
	if n.Policy == Clamp && n.Index >= n.Total-1 {
		n.Playing = false
		return false
	}
	return n.Next()
}

// Toggle suspends or resumes autoplay.
func (n *Navigator) Toggle() {
	n.Playing = !n.Playing
	n.elapsed = 0
}
