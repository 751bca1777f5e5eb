package encounter

// State is the session-state record for one active encounter: the token
// collection plus the sibling runtime overrides (room visibility, door
// status). The whole record is persisted as one snapshot and cleared
// together when the displayed location switches.
type State struct {
	EncounterID    string            `json:"encounter_id"`
	Tokens         map[string]Token  `json:"tokens"`
	RoomVisibility map[string]bool   `json:"room_visibility"`
	DoorStatus     map[string]string `json:"door_status"`
}

func NewState(encounterID string) State {
	return State{
		EncounterID:    encounterID,
		Tokens:         make(map[string]Token),
		RoomVisibility: make(map[string]bool),
		DoorStatus:     make(map[string]string),
	}
}

func (s *State) SetToken(tok Token) {
	s.Tokens[tok.ID] = tok
}

func (s *State) DeleteToken(id string) {
	delete(s.Tokens, id)
}

func (s *State) ClearTokens() {
	s.Tokens = make(map[string]Token)
}

// TokensCopy returns a shallow copy of the token collection, safe to hand
// to callers outside the manager's lock.
func (s *State) TokensCopy() map[string]Token {
	out := make(map[string]Token, len(s.Tokens))
	for id, tok := range s.Tokens {
		out[id] = tok
	}
	return out
}
