package encounter

import "encounter-map-engine/grid"

// Role is the viewer role a command or query runs under.
type Role string

const (
	RoleGM     Role = "gm"
	RolePlayer Role = "player"
)

// RejectReason is a placement-validation rejection. The string form is the
// wire-level reason sent back to the client.
type RejectReason string

const (
	ReasonOccupiedCell RejectReason = "occupied-cell"
	ReasonOutsideRoom  RejectReason = "outside-room"
	ReasonRoomHidden   RejectReason = "room-hidden"
)

func (r RejectReason) Error() string { return string(r) }

// Validate decides whether a token may occupy target. movingTokenID is the
// token being moved, or empty when placing a new one; that token is
// excluded from the overlap check. visibility is the effective per-room
// visibility map. Rules run in order, first failure wins:
//
//  1. no other token may already occupy the cell
//  2. some room's rectangle must contain the cell
//  3. for restricted viewers, the containing room must be visible; GMs
//     bypass this so encounters can be staged in unrevealed rooms
//
// On acceptance it returns the resolved room id. Pure: callers on both
// sides of the wire share it, but only the server's run is authoritative.
func Validate(target grid.Cell, movingTokenID string, tokens map[string]Token, rooms []Room, visibility map[string]bool, role Role) (string, error) {
	for id, tok := range tokens {
		if id != movingTokenID && tok.Position == target {
			return "", ReasonOccupiedCell
		}
	}
	room, ok := RoomAt(rooms, target)
	if !ok {
		return "", ReasonOutsideRoom
	}
	if role != RoleGM && !visibility[room.ID] {
		return "", ReasonRoomHidden
	}
	return room.ID, nil
}
