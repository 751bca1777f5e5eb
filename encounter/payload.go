package encounter

// Wire payloads for the command transport.

type PlacePayload struct {
	Type     TokenType `json:"type"`
	Name     string    `json:"name"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	ImageRef string    `json:"image_url,omitempty"`
	RoomID   string    `json:"room_id,omitempty"`
}

type MovePayload struct {
	TokenID string `json:"token_id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

type StatusPayload struct {
	TokenID string   `json:"token_id"`
	Status  []string `json:"status"`
}

type RoomVisibilityPayload struct {
	RoomID  string `json:"room_id"`
	Visible bool   `json:"visible"`
}

type DoorStatusPayload struct {
	DoorID string `json:"door_id"`
	Status string `json:"status"`
}

type SwitchPayload struct {
	EncounterID string `json:"encounter_id"`
}
