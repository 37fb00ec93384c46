package chords

import (
	"fmt"
	"strconv"
	"strings"
)

// String states within a shape.
const (
	StateMuted = "X"
	StateOpen  = "0"
)

// StringNames labels the six strings from first (high E) to sixth (low E),
// matching the top-to-bottom order diagrams are drawn in.
var StringNames = [6]string{"e", "B", "G", "D", "A", "E"}

// Shape is one concrete fingering of a chord: six string states ("X", "0",
// or a fret number) and six finger assignments ("", "1".."4", or "T"),
// ordered first string to sixth string.
type Shape struct {
	Strings [6]string
	Fingers [6]string
}

// FretAt returns the fret number for a string and whether the string is
// fretted at all (muted and open strings report false).
func (s Shape) FretAt(idx int) (int, bool) {
	state := s.Strings[idx]
	if state == StateMuted || state == StateOpen || state == "" {
		return 0, false
	}
	fret, err := strconv.Atoi(state)
	if err != nil || fret <= 0 {
		return 0, false
	}
	return fret, true
}

// ParseShape builds a Shape from comma-separated string and finger lists as
// persisted in the catalog.
func ParseShape(stringStates, fingerStates string) (Shape, error) {
	var shape Shape
	states := strings.Split(stringStates, ",")
	if len(states) != 6 {
		return shape, fmt.Errorf("shape needs 6 string states, got %d", len(states))
	}
	for i, state := range states {
		shape.Strings[i] = strings.TrimSpace(state)
	}

	if fingerStates != "" {
		fingers := strings.Split(fingerStates, ",")
		if len(fingers) != 6 {
			return shape, fmt.Errorf("shape needs 6 finger states, got %d", len(fingers))
		}
		for i, finger := range fingers {
			shape.Fingers[i] = strings.TrimSpace(finger)
		}
	}
	return shape, nil
}

// EncodeStates joins a six-element state list for persistence.
func EncodeStates(states [6]string) string {
	return strings.Join(states[:], ",")
}
