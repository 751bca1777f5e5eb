// Package client holds the view-side half of the engine: the drag
// gesture controller, the polling sync client, and the render adapter.
package client

import (
	"encoding/json"
	"errors"
	"math"

	"encounter-map-engine/encounter"
	"encounter-map-engine/grid"
)

type phase int

const (
	phaseIdle phase = iota
	phasePending
	phaseActive
)

// subject is what a gesture is dragging: an existing token by id, or a
// palette template being placed.
type subject struct {
	tokenID  string
	template encounter.Template
}

// Snapshot is the client's current view of the authoritative state, used
// for non-authoritative local validation during a gesture.
type Snapshot struct {
	Tokens     map[string]encounter.Token
	Rooms      []encounter.Room
	Visibility map[string]bool
	Role       encounter.Role
}

// CommandKind discriminates the single command a completed drag produces.
type CommandKind string

const (
	CommandPlace CommandKind = "place"
	CommandMove  CommandKind = "move"
)

// Command is the one mutation a completed drag commits.
type Command struct {
	Kind  CommandKind
	Place encounter.PlacePayload
	Move  encounter.MovePayload
}

// Outcome is the result of a pointer-up. At most one of Command and
// Selected is set; Warning carries the rejection text shown to the user.
type Outcome struct {
	Command  *Command
	Selected string
	Warning  string
}

// Controller is the drag gesture state machine: Idle, PendingDrag after a
// pointer-down, ActiveDrag once movement exceeds the threshold, back to
// Idle on pointer-up. It is purely client-local; the network sees exactly
// one command per committed gesture, never per pointer-move.
type Controller struct {
	thresholdPx float64
	cellSize    float64

	phase    phase
	originX  float64
	originY  float64
	subject  subject
	ghost    grid.Cell
	hasGhost bool
}

func NewController(thresholdPx, cellSize float64) *Controller {
	return &Controller{thresholdPx: thresholdPx, cellSize: cellSize}
}

// PointerDownToken starts a gesture on an existing token.
func (d *Controller) PointerDownToken(tokenID string, x, y float64) {
	if d.phase != phaseIdle || tokenID == "" {
		return
	}
	d.phase = phasePending
	d.originX, d.originY = x, y
	d.subject = subject{tokenID: tokenID}
}

// PointerDownTemplate starts a gesture on a palette card. The payload is
// the catalog's opaque drag data; if it does not parse into a usable
// template the gesture is silently ignored.
func (d *Controller) PointerDownTemplate(payload []byte, x, y float64) {
	if d.phase != phaseIdle {
		return
	}
	var tmpl encounter.Template
	if err := json.Unmarshal(payload, &tmpl); err != nil {
		return
	}
	if !encounter.ValidTokenType(tmpl.Type) || tmpl.Name == "" {
		return
	}
	d.phase = phasePending
	d.originX, d.originY = x, y
	d.subject = subject{template: tmpl}
}

// PointerMove advances the gesture. A pending drag becomes active only
// once cumulative displacement from the origin exceeds the threshold, so
// an ordinary tap is never mistaken for a zero-distance drag. While
// active, every move re-snaps the ghost cell.
func (d *Controller) PointerMove(x, y float64, view grid.Transform) {
	switch d.phase {
	case phasePending:
		if math.Hypot(x-d.originX, y-d.originY) <= d.thresholdPx {
			return
		}
		d.phase = phaseActive
		d.updateGhost(x, y, view)
	case phaseActive:
		d.updateGhost(x, y, view)
	}
}

func (d *Controller) updateGhost(x, y float64, view grid.Transform) {
	planeX, planeY := grid.ToPlane(x, y, view)
	d.ghost = grid.SnapToGrid(planeX, planeY, d.cellSize)
	d.hasGhost = true
}

// PointerUp ends the gesture. Below the threshold it is a click: an
// existing token becomes the selection, no command is issued. An active
// drag validates the final snapped cell against the local snapshot and,
// if accepted, commits exactly one command; otherwise the ghost is
// dropped and the rejection surfaces as a warning.
func (d *Controller) PointerUp(x, y float64, view grid.Transform, snap Snapshot) Outcome {
	defer d.reset()

	switch d.phase {
	case phasePending:
		return Outcome{Selected: d.subject.tokenID}
	case phaseActive:
		planeX, planeY := grid.ToPlane(x, y, view)
		target := grid.SnapToGrid(planeX, planeY, d.cellSize)
		return d.commit(target, snap)
	default:
		return Outcome{}
	}
}

func (d *Controller) commit(target grid.Cell, snap Snapshot) Outcome {
	roomID, err := encounter.Validate(target, d.subject.tokenID, snap.Tokens, snap.Rooms, snap.Visibility, snap.Role)
	if err != nil {
		return Outcome{Warning: warningText(err)}
	}

	if d.subject.tokenID != "" {
		return Outcome{Command: &Command{
			Kind: CommandMove,
			Move: encounter.MovePayload{TokenID: d.subject.tokenID, X: target.X, Y: target.Y},
		}}
	}
	return Outcome{Command: &Command{
		Kind: CommandPlace,
		Place: encounter.PlacePayload{
			Type:     d.subject.template.Type,
			Name:     d.subject.template.Name,
			X:        target.X,
			Y:        target.Y,
			ImageRef: d.subject.template.ImageRef,
			RoomID:   roomID,
		},
	}}
}

// Abort cancels the gesture without a command, e.g. on pointer-cancel or
// focus loss.
func (d *Controller) Abort() {
	d.reset()
}

func (d *Controller) reset() {
	*d = Controller{thresholdPx: d.thresholdPx, cellSize: d.cellSize}
}

// Ghost returns the transient preview cell while a drag is active.
func (d *Controller) Ghost() (grid.Cell, bool) {
	if d.phase != phaseActive || !d.hasGhost {
		return grid.Cell{}, false
	}
	return d.ghost, true
}

// SuppressedTokenID is the token hidden from normal rendering while it is
// being dragged, so only the ghost shows at the candidate cell.
func (d *Controller) SuppressedTokenID() string {
	if d.phase != phaseActive {
		return ""
	}
	return d.subject.tokenID
}

// GhostName is the display name for the ghost preview.
func (d *Controller) GhostName(snap Snapshot) string {
	if d.subject.tokenID != "" {
		if tok, ok := snap.Tokens[d.subject.tokenID]; ok {
			return tok.Name
		}
		return ""
	}
	return d.subject.template.Name
}

func warningText(err error) string {
	var reason encounter.RejectReason
	if !errors.As(err, &reason) {
		return err.Error()
	}
	switch reason {
	case encounter.ReasonOccupiedCell:
		return "that cell is already occupied"
	case encounter.ReasonOutsideRoom:
		return "tokens must be placed inside a room"
	case encounter.ReasonRoomHidden:
		return "that room has not been revealed"
	default:
		return string(reason)
	}
}
