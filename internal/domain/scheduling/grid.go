package scheduling

import (
	"fmt"
	"time"
)

// Grid is the clinic's daily slot grid: the ordered set of half-open time
// slots between opening and closing, labelled "HH:MM" by start time. A Grid
// is immutable after construction and safe for concurrent use.
type Grid struct {
	slots []string
	index map[string]int
}

// NewGrid builds a grid from opening and closing times in "HH:MM" form and a
// slot length. The closing time is exclusive: a 09:00-17:00 grid with 30
// minute slots ends at 16:30.
func NewGrid(opening, closing string, step time.Duration) (*Grid, error) {
	open, err := time.Parse("15:04", opening)
	if err != nil {
		return nil, fmt.Errorf("parse opening time %q: %w", opening, err)
	}
	close, err := time.Parse("15:04", closing)
	if err != nil {
		return nil, fmt.Errorf("parse closing time %q: %w", closing, err)
	}
	if !close.After(open) {
		return nil, fmt.Errorf("closing time %s must be after opening time %s", closing, opening)
	}
	if step <= 0 {
		return nil, fmt.Errorf("slot length must be positive, got %s", step)
	}

	g := &Grid{index: make(map[string]int)}
	for t := open; t.Before(close); t = t.Add(step) {
		label := t.Format("15:04")
		g.index[label] = len(g.slots)
		g.slots = append(g.slots, label)
	}
	return g, nil
}

// DefaultGrid returns the standard clinic grid: 09:00 to 17:00 in 30 minute
// slots, sixteen slots per day.
func DefaultGrid() *Grid {
	g, err := NewGrid("09:00", "17:00", 30*time.Minute)
	if err != nil {
		panic(err)
	}
	return g
}

// Slots returns the slot labels in chronological order. The returned slice
// is a copy.
func (g *Grid) Slots() []string {
	out := make([]string, len(g.slots))
	copy(out, g.slots)
	return out
}

// Contains reports whether label names a slot on the grid.
func (g *Grid) Contains(label string) bool {
	_, ok := g.index[label]
	return ok
}

// Len returns the number of slots per day.
func (g *Grid) Len() int {
	return len(g.slots)
}
