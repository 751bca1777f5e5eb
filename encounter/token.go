package encounter

import (
	"sort"

	"encounter-map-engine/grid"
)

// TokenType classifies a placeable entity on the tactical map.
type TokenType string

const (
	TokenPlayer   TokenType = "player"
	TokenNPC      TokenType = "npc"
	TokenCreature TokenType = "creature"
	TokenObject   TokenType = "object"
)

// ValidTokenType reports whether t is one of the known token types.
func ValidTokenType(t TokenType) bool {
	switch t {
	case TokenPlayer, TokenNPC, TokenCreature, TokenObject:
		return true
	}
	return false
}

// StatusFlag is one condition flag on a token.
type StatusFlag string

const (
	StatusWounded  StatusFlag = "wounded"
	StatusDead     StatusFlag = "dead"
	StatusPanicked StatusFlag = "panicked"
	StatusStunned  StatusFlag = "stunned"
)

// NormalizeStatus reduces flags to a sorted set: duplicates and unknown
// flags are dropped. Status is a set, not a sequence.
func NormalizeStatus(flags []StatusFlag) []StatusFlag {
	seen := make(map[StatusFlag]bool)
	out := make([]StatusFlag, 0, len(flags))
	for _, f := range flags {
		switch f {
		case StatusWounded, StatusDead, StatusPanicked, StatusStunned:
		default:
			continue
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Token is a placeable entity on the tactical map. The id is assigned by
// the server on placement and never changes afterwards.
type Token struct {
	ID       string       `json:"id"`
	Type     TokenType    `json:"type"`
	Name     string       `json:"name"`
	Position grid.Cell    `json:"position"`
	Status   []StatusFlag `json:"status"`
	RoomID   string       `json:"room_id,omitempty"`
	ImageRef string       `json:"image_url,omitempty"`
}

// Room is a rectangular region of the grid with an independent visibility
// flag. Rooms are owned by the map-authoring side; this subsystem only
// reads them.
type Room struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Visible bool   `json:"visible"`
}

// Contains reports whether the room's rectangle contains the cell.
func (r Room) Contains(c grid.Cell) bool {
	return c.X >= r.X && c.X < r.X+r.Width &&
		c.Y >= r.Y && c.Y < r.Y+r.Height
}

// RoomAt returns the first room in the ordered list whose rectangle
// contains the cell.
func RoomAt(rooms []Room, c grid.Cell) (Room, bool) {
	for _, r := range rooms {
		if r.Contains(c) {
			return r, true
		}
	}
	return Room{}, false
}

// Template is a candidate token from the palette catalog. The drag
// controller treats it as an opaque payload; it is parsed, never mutated.
type Template struct {
	Type     TokenType `json:"type"`
	Name     string    `json:"name"`
	ImageRef string    `json:"image_url"`
}
