package client

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"encounter-map-engine/encounter"
	"encounter-map-engine/grid"
)

// Ghost is the transient preview drawn at the drag's snapped target cell.
type Ghost struct {
	Cell grid.Cell
	Name string
}

// Renderer draws one frame: the visible token set plus the optional drag
// ghost. It is a thin consumer of the visibility filter's output.
type Renderer interface {
	Draw(tokens map[string]encounter.Token, ghost *Ghost) error
}

// ComposeFrame assembles the drawable state for one view: the filtered
// token set minus the drag-suppressed token, plus the ghost preview.
func ComposeFrame(p *Poller, d *Controller) (map[string]encounter.Token, *Ghost) {
	tokens := p.Visible()
	if suppressed := d.SuppressedTokenID(); suppressed != "" {
		delete(tokens, suppressed)
	}

	var ghost *Ghost
	if cell, ok := d.Ghost(); ok {
		ghost = &Ghost{Cell: cell, Name: d.GhostName(p.Snapshot())}
	}
	return tokens, ghost
}

// TextRenderer draws the grid as ASCII rows, one rune per cell: '.' for
// empty, the token name's initial for occupied, '+' for the ghost. Used
// by the terminal views and tests.
type TextRenderer struct {
	w      io.Writer
	width  int
	height int
}

func NewTextRenderer(w io.Writer, width, height int) *TextRenderer {
	return &TextRenderer{w: w, width: width, height: height}
}

func (r *TextRenderer) Draw(tokens map[string]encounter.Token, ghost *Ghost) error {
	cells := make(map[grid.Cell]rune, len(tokens))

	// Sort for a deterministic winner when stale optimistic state briefly
	// overlaps two tokens on one cell.
	ids := make([]string, 0, len(tokens))
	for id := range tokens {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		tok := tokens[id]
		cells[tok.Position] = initial(tok.Name)
	}
	if ghost != nil {
		cells[ghost.Cell] = '+'
	}

	var b strings.Builder
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			ch, ok := cells[grid.Cell{X: x, Y: y}]
			if !ok {
				ch = '.'
			}
			b.WriteRune(ch)
		}
		b.WriteByte('\n')
	}

	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func initial(name string) rune {
	for _, ch := range name {
		return unicode.ToUpper(ch)
	}
	return '?'
}
