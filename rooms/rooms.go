// Package rooms supplies room rectangles for an encounter. The map
// authoring pipeline owns this data; the engine only reads it.
package rooms

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"encounter-map-engine/encounter"
)

// Provider returns the ordered room list for an encounter id.
type Provider interface {
	Rooms(encounterID string) ([]encounter.Room, error)
}

// Dir loads rooms from <dataDir>/encounters/<id>/rooms.json.
type Dir struct {
	dataDir string
}

func NewDir(dataDir string) *Dir {
	return &Dir{dataDir: dataDir}
}

func (d *Dir) Rooms(encounterID string) ([]encounter.Room, error) {
	if encounterID == "" || encounterID != filepath.Base(encounterID) || strings.HasPrefix(encounterID, ".") {
		return nil, fmt.Errorf("invalid encounter id %q", encounterID)
	}

	path := filepath.Join(d.dataDir, "encounters", encounterID, "rooms.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rooms for %q: %w", encounterID, err)
	}

	var rooms []encounter.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("parse rooms for %q: %w", encounterID, err)
	}
	return rooms, nil
}

// Static serves a fixed in-memory room catalog, keyed by encounter id.
type Static map[string][]encounter.Room

func (s Static) Rooms(encounterID string) ([]encounter.Room, error) {
	rooms, ok := s[encounterID]
	if !ok {
		return nil, fmt.Errorf("unknown encounter %q", encounterID)
	}
	return rooms, nil
}
