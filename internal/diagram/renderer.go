// Package diagram renders chord shapes as deterministic, self-contained SVG
// images. Rendering is a pure function of (shape, window, theme): identical
// inputs always produce byte-identical output.
package diagram

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"

	"github.com/davidsparrow/guitartube-sub001/internal/chords"
	"github.com/davidsparrow/guitartube-sub001/internal/fretboard"
)

// Fixed canvas geometry. Strings run horizontally (first string topmost),
// fret-window lines run vertically.
const (
	canvasWidth  = 320
	canvasHeight = 420

	gridLeft  = 50
	gridTop   = 70
	cellWidth = 36
	stringGap = 50

	dotRadius   = 13
	glyphRadius = 9

	fontFamily = "Helvetica,Arial,sans-serif"
)

// Render draws a chord shape against its display window in the given theme.
func Render(shape chords.Shape, win fretboard.Window, theme Theme) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(canvasWidth, canvasHeight)
	canvas.Rect(0, 0, canvasWidth, canvasHeight, "fill:"+theme.Background)

	gridRight := gridLeft + 5*cellWidth
	gridBottom := gridTop + 5*stringGap

	// Fret-window vertical lines; the boundary at the true nut is thicker
	// and uses the contrasting color.
	for j, fret := range win.Lines {
		x := gridLeft + j*cellWidth
		style := fmt.Sprintf("stroke:%s;stroke-width:2", theme.Line)
		if j == 0 && fret == 0 {
			style = fmt.Sprintf("stroke:%s;stroke-width:6", theme.Contrast)
		}
		canvas.Line(x, gridTop, x, gridBottom, style)
	}

	// String lines, first string (high E) topmost.
	for i := 0; i < 6; i++ {
		y := gridTop + i*stringGap
		canvas.Line(gridLeft, y, gridRight, y, fmt.Sprintf("stroke:%s;stroke-width:2", theme.Line))
	}

	for i := 0; i < 6; i++ {
		y := gridTop + i*stringGap
		state := shape.Strings[i]

		switch state {
		case chords.StateMuted, chords.StateOpen:
			drawNutGlyph(canvas, y, state, theme)
			continue
		}

		fret, ok := shape.FretAt(i)
		if !ok {
			continue
		}
		cell, visible := cellForFret(win, fret)
		if !visible {
			continue
		}
		cx := gridLeft + cell*cellWidth - cellWidth/2
		finger := shape.Fingers[i]
		canvas.Circle(cx, y, dotRadius,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", fingerColor(finger), theme.Contrast))
		if finger != "" {
			canvas.Text(cx, y+5, finger,
				fmt.Sprintf("text-anchor:middle;font-family:%s;font-size:14px;font-weight:bold;fill:%s", fontFamily, theme.DotText))
		}
	}

	// String names to the right of the last string line.
	for i, name := range chords.StringNames {
		y := gridTop + i*stringGap
		canvas.Text(gridRight+16, y+5, name,
			fmt.Sprintf("text-anchor:middle;font-family:%s;font-size:14px;fill:%s", fontFamily, theme.Contrast))
	}

	// Fret numbers below the last string line, one per window line.
	for j, fret := range win.Lines {
		x := gridLeft + j*cellWidth
		canvas.Text(x, gridBottom+28, fmt.Sprintf("%d", fret),
			fmt.Sprintf("text-anchor:middle;font-family:%s;font-size:13px;fill:%s", fontFamily, theme.Contrast))
	}

	canvas.End()
	return buf.Bytes()
}

func drawNutGlyph(canvas *svg.SVG, y int, state string, theme Theme) {
	cx := gridLeft - 24
	canvas.Circle(cx, y, glyphRadius,
		fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", theme.Contrast))
	canvas.Text(cx, y+4, state,
		fmt.Sprintf("text-anchor:middle;font-family:%s;font-size:11px;fill:%s", fontFamily, theme.Contrast))
}

// cellForFret locates the window cell whose right boundary line carries the
// fret. Frets on or left of the first line have no cell and are not drawn.
func cellForFret(win fretboard.Window, fret int) (int, bool) {
	for j := 1; j < len(win.Lines); j++ {
		if win.Lines[j] == fret {
			return j, true
		}
	}
	return 0, false
}
