package diagram_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/davidsparrow/guitartube-sub001/internal/chords"
	"github.com/davidsparrow/guitartube-sub001/internal/diagram"
	"github.com/davidsparrow/guitartube-sub001/internal/fretboard"
)

func cMajorShape() (chords.Shape, fretboard.Window) {
	// C major, first string topmost: 0 1 0 2 3 X.
	shape := chords.Shape{
		Strings: [6]string{"0", "1", "0", "2", "3", "X"},
		Fingers: [6]string{"", "1", "", "2", "3", ""},
	}
	return shape, fretboard.Compute(shape.Strings)
}

func TestRenderDeterministic(t *testing.T) {
	shape, win := cMajorShape()
	first := diagram.Render(shape, win, diagram.Light)
	second := diagram.Render(shape, win, diagram.Light)
	if !bytes.Equal(first, second) {
		t.Fatal("identical inputs must produce byte-identical output")
	}
}

func TestRenderContainsExpectedElements(t *testing.T) {
	shape, win := cMajorShape()
	out := string(diagram.Render(shape, win, diagram.Light))

	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatal("output is not a complete svg document")
	}
	// Muted sixth string and open first/third strings get nut glyphs.
	if !strings.Contains(out, ">X</text>") {
		t.Fatal("expected muted-string glyph")
	}
	if !strings.Contains(out, ">0</text>") {
		t.Fatal("expected open-string glyph")
	}
	// The nut boundary is drawn thicker in the contrast color.
	if !strings.Contains(out, "stroke-width:6") {
		t.Fatal("expected thick nut line")
	}
	// Finger numerals on the dots.
	for _, finger := range []string{">1</text>", ">2</text>", ">3</text>"} {
		if !strings.Contains(out, finger) {
			t.Fatalf("expected finger numeral %s", finger)
		}
	}
	// String name labels.
	if !strings.Contains(out, ">e</text>") || !strings.Contains(out, ">E</text>") {
		t.Fatal("expected string-name labels")
	}
}

func TestRenderThemesDiffer(t *testing.T) {
	shape, win := cMajorShape()
	light := diagram.Render(shape, win, diagram.Light)
	dark := diagram.Render(shape, win, diagram.Dark)
	if bytes.Equal(light, dark) {
		t.Fatal("light and dark themes must differ")
	}
	if !strings.Contains(string(dark), diagram.Dark.Background) {
		t.Fatal("dark render missing dark background")
	}
}

func TestRenderShiftedWindowPlacesHighFrets(t *testing.T) {
	shape := chords.Shape{
		Strings: [6]string{"12", "12", "14", "14", "12", "12"},
		Fingers: [6]string{"1", "1", "3", "4", "1", "1"},
	}
	win := fretboard.Compute(shape.Strings)
	out := string(diagram.Render(shape, win, diagram.Dark))
	// Window lines 10..15 are labeled below the grid.
	for _, label := range []string{">10</text>", ">12</text>", ">15</text>"} {
		if !strings.Contains(out, label) {
			t.Fatalf("expected fret label %s in shifted window", label)
		}
	}
	// No nut line when the window does not start at fret 0.
	if strings.Contains(out, "stroke-width:6") {
		t.Fatal("shifted window must not draw a nut boundary")
	}
}

func TestThemeByName(t *testing.T) {
	if _, ok := diagram.ThemeByName("light"); !ok {
		t.Fatal("light theme should resolve")
	}
	if _, ok := diagram.ThemeByName("sepia"); ok {
		t.Fatal("unknown theme must not resolve")
	}
}
