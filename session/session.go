package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"encounter-map-engine/encounter"
	"encounter-map-engine/grid"
	"encounter-map-engine/rooms"
	"encounter-map-engine/store"
)

// snapshotKey identifies the singleton session-state row. The shared
// terminal only ever displays one encounter.
const snapshotKey = "active"

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrUnknownRoom   = errors.New("unknown room")
	ErrInvalidToken  = errors.New("invalid token payload")
)

// Manager owns the authoritative session-state record for the active
// encounter: the token collection plus the room-visibility and door-status
// overrides. All mutations run under one lock, so every command is atomic
// against the record. Concurrent GM writers are last-write-wins.
type Manager struct {
	mu       sync.Mutex
	state    encounter.State
	rooms    []encounter.Room
	provider rooms.Provider

	store            store.SnapshotStore
	snapshotInterval time.Duration
	stopSnapshots    chan struct{}
}

func NewManager(provider rooms.Provider) *Manager {
	return &Manager{
		state:    encounter.NewState(""),
		provider: provider,
	}
}

// SetStore attaches a snapshot store and the periodic snapshot interval.
func (m *Manager) SetStore(s store.SnapshotStore, interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
	m.snapshotInterval = interval
}

// RestoreState loads the persisted session-state record, if any, and
// re-resolves its encounter's rooms from the provider.
func (m *Manager) RestoreState() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return
	}
	data, ok, err := m.store.LoadSnapshot(snapshotKey)
	if err != nil {
		log.Printf("warning: failed to load session snapshot: %v", err)
		return
	}
	if !ok {
		return
	}

	var state encounter.State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("warning: invalid session snapshot, starting fresh: %v", err)
		return
	}
	if state.Tokens == nil {
		state.Tokens = make(map[string]encounter.Token)
	}
	if state.RoomVisibility == nil {
		state.RoomVisibility = make(map[string]bool)
	}
	if state.DoorStatus == nil {
		state.DoorStatus = make(map[string]string)
	}

	var roomList []encounter.Room
	if state.EncounterID != "" {
		roomList, err = m.provider.Rooms(state.EncounterID)
		if err != nil {
			log.Printf("warning: could not restore rooms for encounter %q: %v", state.EncounterID, err)
			return
		}
	}

	m.state = state
	m.rooms = roomList
	log.Printf("restored session state: encounter %q, %d tokens", state.EncounterID, len(state.Tokens))
}

// StartPeriodicSnapshots begins saving the session state on a timer.
func (m *Manager) StartPeriodicSnapshots() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil || m.stopSnapshots != nil {
		return
	}
	m.stopSnapshots = make(chan struct{})

	go func(stop chan struct{}, interval time.Duration) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Snapshot()
			case <-stop:
				return
			}
		}
	}(m.stopSnapshots, m.snapshotInterval)
}

// StopPeriodicSnapshots stops the snapshot loop and saves one final
// snapshot.
func (m *Manager) StopPeriodicSnapshots() {
	m.mu.Lock()
	if m.stopSnapshots != nil {
		close(m.stopSnapshots)
		m.stopSnapshots = nil
	}
	m.mu.Unlock()

	m.Snapshot()
}

// Snapshot saves the current session state. Failures are logged, never
// fatal; the next tick retries.
func (m *Manager) Snapshot() {
	m.mu.Lock()
	s := m.store
	data, err := json.Marshal(m.state)
	m.mu.Unlock()

	if s == nil {
		return
	}
	if err != nil {
		log.Printf("warning: failed to marshal session state: %v", err)
		return
	}
	if err := s.SaveSnapshot(snapshotKey, data); err != nil {
		log.Printf("warning: failed to save session snapshot: %v", err)
	}
}

// SwitchEncounter activates a new encounter: rooms are loaded from the
// provider and the whole session-state record (tokens, visibility
// overrides, door status) is reset. This is the one transition that
// clears the record; stale tokens never leak across locations.
func (m *Manager) SwitchEncounter(encounterID string) error {
	roomList, err := m.provider.Rooms(encounterID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.state = encounter.NewState(encounterID)
	m.rooms = roomList
	m.mu.Unlock()

	log.Printf("switched to encounter %q (%d rooms)", encounterID, len(roomList))
	m.Snapshot()
	return nil
}

// PlaceToken validates and inserts a new token, assigning its id. The
// room id is resolved by the validator from the target cell; a room id
// suggested by the client is advisory only. This run of the validator is
// the authoritative one, whatever the client concluded.
func (m *Manager) PlaceToken(p encounter.PlacePayload, role encounter.Role) (encounter.Token, error) {
	if !encounter.ValidTokenType(p.Type) || p.Name == "" {
		return encounter.Token{}, fmt.Errorf("%w: type %q, name %q", ErrInvalidToken, p.Type, p.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cell := grid.Cell{X: p.X, Y: p.Y}
	roomID, err := encounter.Validate(cell, "", m.state.Tokens, m.rooms, m.effectiveVisibility(), role)
	if err != nil {
		return encounter.Token{}, err
	}

	tok := encounter.Token{
		ID:       uuid.NewString(),
		Type:     p.Type,
		Name:     p.Name,
		Position: cell,
		Status:   []encounter.StatusFlag{},
		RoomID:   roomID,
		ImageRef: p.ImageRef,
	}
	m.state.SetToken(tok)
	return tok, nil
}

// MoveToken validates and applies a move, re-resolving the token's room.
// A rejected move leaves the collection untouched.
func (m *Manager) MoveToken(tokenID string, cell grid.Cell, role encounter.Role) (encounter.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, ok := m.state.Tokens[tokenID]
	if !ok {
		return encounter.Token{}, ErrTokenNotFound
	}

	roomID, err := encounter.Validate(cell, tokenID, m.state.Tokens, m.rooms, m.effectiveVisibility(), role)
	if err != nil {
		return encounter.Token{}, err
	}

	tok.Position = cell
	tok.RoomID = roomID
	m.state.SetToken(tok)
	return tok, nil
}

// RemoveToken deletes a token. Removing an unknown id is a no-op.
func (m *Manager) RemoveToken(tokenID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.DeleteToken(tokenID)
}

// SetTokenStatus replaces the token's status set wholesale. Toggling a
// single flag is a client concern: read, modify, submit the new set.
func (m *Manager) SetTokenStatus(tokenID string, flags []encounter.StatusFlag) (encounter.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, ok := m.state.Tokens[tokenID]
	if !ok {
		return encounter.Token{}, ErrTokenNotFound
	}

	tok.Status = encounter.NormalizeStatus(flags)
	m.state.SetToken(tok)
	return tok, nil
}

// ClearTokens empties the token collection.
func (m *Manager) ClearTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ClearTokens()
}

// SetRoomVisibility records a runtime visibility override for a room of
// the active encounter.
func (m *Manager) SetRoomVisibility(roomID string, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	known := false
	for _, r := range m.rooms {
		if r.ID == roomID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownRoom, roomID)
	}
	m.state.RoomVisibility[roomID] = visible
	return nil
}

// SetDoorStatus records a door-status override. Door ids come from map
// data the engine does not read, so they are not validated here.
func (m *Manager) SetDoorStatus(doorID, status string) error {
	if doorID == "" || status == "" {
		return fmt.Errorf("door id and status are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.DoorStatus[doorID] = status
	return nil
}

// TokensForViewer returns the token collection a viewer role may see,
// filtered against the current effective visibility.
func (m *Manager) TokensForViewer(role encounter.Role) map[string]encounter.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return encounter.FilterForViewer(m.state.Tokens, m.effectiveVisibility(), role)
}

// EncounterInfo describes the active encounter for the poll endpoints.
type EncounterInfo struct {
	EncounterID    string            `json:"encounter_id"`
	Rooms          []encounter.Room  `json:"rooms"`
	RoomVisibility map[string]bool   `json:"room_visibility"`
	DoorStatus     map[string]string `json:"door_status"`
}

// Info returns the active encounter's rooms and overrides.
func (m *Manager) Info() EncounterInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomList := make([]encounter.Room, len(m.rooms))
	copy(roomList, m.rooms)

	doors := make(map[string]string, len(m.state.DoorStatus))
	for id, s := range m.state.DoorStatus {
		doors[id] = s
	}

	return EncounterInfo{
		EncounterID:    m.state.EncounterID,
		Rooms:          roomList,
		RoomVisibility: m.effectiveVisibility(),
		DoorStatus:     doors,
	}
}

// effectiveVisibility must be called with the lock held.
func (m *Manager) effectiveVisibility() map[string]bool {
	return encounter.EffectiveVisibility(m.rooms, m.state.RoomVisibility)
}
