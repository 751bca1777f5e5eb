package encounter

// EffectiveVisibility merges the rooms' authored visible flags with the
// session's runtime overrides. Overrides win.
func EffectiveVisibility(rooms []Room, overrides map[string]bool) map[string]bool {
	out := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		out[r.ID] = r.Visible
	}
	for id, v := range overrides {
		out[id] = v
	}
	return out
}

// FilterForViewer derives the visible subset of tokens for a viewer role.
// GMs see everything. Restricted viewers see tokens with no room (always
// visible) and tokens whose room is explicitly visible. An unset entry in
// the visibility map hides the room, it does not reveal it. The subset is
// re-derived from the current map on every call; callers must not cache a
// token's last known visibility across map changes.
func FilterForViewer(tokens map[string]Token, visibility map[string]bool, role Role) map[string]Token {
	out := make(map[string]Token, len(tokens))
	for id, tok := range tokens {
		if role != RoleGM && tok.RoomID != "" && !visibility[tok.RoomID] {
			continue
		}
		out[id] = tok
	}
	return out
}
