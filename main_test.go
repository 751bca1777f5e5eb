package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"encounter-map-engine/client"
	"encounter-map-engine/encounter"
	"encounter-map-engine/grid"
	"encounter-map-engine/rooms"
	"encounter-map-engine/session"
)

// startTestServer spins up the Fiber app on a random port and returns the
// base URL. It swaps in a fresh manager with in-memory rooms so tests are
// isolated.
func startTestServer(t *testing.T) string {
	t.Helper()

	manager = session.NewManager(rooms.Static{
		"derelict": {
			{ID: "r1", X: 0, Y: 0, Width: 10, Height: 10, Visible: true},
			{ID: "r2", X: 10, Y: 0, Width: 5, Height: 5, Visible: false},
		},
	})
	if err := manager.SwitchEncounter("derelict"); err != nil {
		t.Fatal(err)
	}

	app := setupApp()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		_ = app.Listener(ln)
	}()

	t.Cleanup(func() {
		_ = app.Shutdown()
	})

	return fmt.Sprintf("http://%s", ln.Addr().String())
}

func doJSON(t *testing.T, method, url, role string, payload any) *http.Response {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Viewer-Role", role)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func placeGuard(t *testing.T, base string, x, y int) encounter.Token {
	t.Helper()

	resp := doJSON(t, http.MethodPost, base+"/encounter/tokens", "gm", encounter.PlacePayload{
		Type: encounter.TokenNPC, Name: "Guard", X: x, Y: y,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var tok encounter.Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestHealth(t *testing.T) {
	base := startTestServer(t)

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestClientConfig(t *testing.T) {
	base := startTestServer(t)

	resp, err := http.Get(base + "/config")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		PollIntervalMs  int `json:"poll_interval_ms"`
		DragThresholdPx int `json:"drag_threshold_px"`
		CellSize        int `json:"cell_size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.PollIntervalMs != 2000 || body.DragThresholdPx != 5 || body.CellSize != 96 {
		t.Errorf("unexpected client config: %+v", body)
	}
}

func TestPlaceAndPollLifecycle(t *testing.T) {
	base := startTestServer(t)

	tok := placeGuard(t, base, 3, 4)
	if tok.ID == "" || tok.RoomID != "r1" {
		t.Fatalf("unexpected placed token: %+v", tok)
	}

	// Duplicate cell is rejected with the reason on the wire.
	resp := doJSON(t, http.MethodPost, base+"/encounter/tokens", "gm", encounter.PlacePayload{
		Type: encounter.TokenPlayer, Name: "Doe", X: 3, Y: 4,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Error != "occupied-cell" {
		t.Errorf("expected occupied-cell, got %q", apiErr.Error)
	}

	// Both roles poll it back from the visible room.
	for _, role := range []encounter.Role{encounter.RoleGM, encounter.RolePlayer} {
		p := client.NewPoller(base, role)
		if err := p.PollOnce(); err != nil {
			t.Fatalf("%s poll failed: %v", role, err)
		}
		if got := len(p.Visible()); got != 1 {
			t.Errorf("expected %s to see 1 token, got %d", role, got)
		}
	}
}

func TestMutationsRequireGMRole(t *testing.T) {
	base := startTestServer(t)

	resp := doJSON(t, http.MethodPost, base+"/encounter/tokens", "", encounter.PlacePayload{
		Type: encounter.TokenNPC, Name: "Guard", X: 1, Y: 1,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 without gm role, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, base+"/encounter/tokens/clear", "player", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for player clear, got %d", resp.StatusCode)
	}
}

func TestHiddenRoomAsymmetryOverHTTP(t *testing.T) {
	base := startTestServer(t)
	placeGuard(t, base, 3, 4)

	// Hide r1 at runtime.
	resp := doJSON(t, http.MethodPost, base+"/encounter/rooms/visibility", "gm", encounter.RoomVisibilityPayload{
		RoomID: "r1", Visible: false,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	gm := client.NewPoller(base, encounter.RoleGM)
	if err := gm.PollOnce(); err != nil {
		t.Fatal(err)
	}
	if got := len(gm.Visible()); got != 1 {
		t.Errorf("expected GM to keep seeing the token, got %d", got)
	}

	player := client.NewPoller(base, encounter.RolePlayer)
	if err := player.PollOnce(); err != nil {
		t.Fatal(err)
	}
	if got := len(player.Visible()); got != 0 {
		t.Errorf("expected player to see nothing, got %d", got)
	}
}

func TestDragGestureEndToEnd(t *testing.T) {
	base := startTestServer(t)

	gm := client.NewPoller(base, encounter.RoleGM)
	if err := gm.PollOnce(); err != nil {
		t.Fatal(err)
	}

	// GM drags a palette template onto cell (3,4).
	ctl := client.NewController(5, 96)
	view := grid.Transform{Scale: 1}
	ctl.PointerDownTemplate([]byte(`{"type":"npc","name":"Sentry"}`), 10, 10)
	ctl.PointerMove(350, 430, view)
	out := ctl.PointerUp(350, 430, view, gm.Snapshot())

	if out.Command == nil {
		t.Fatalf("expected a command, got %+v", out)
	}
	tok, err := gm.SendCommand(*out.Command)
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if tok.Position != (grid.Cell{X: 3, Y: 4}) {
		t.Errorf("expected token at (3,4), got %+v", tok.Position)
	}

	// A player terminal picks it up on its next poll.
	player := client.NewPoller(base, encounter.RolePlayer)
	if err := player.PollOnce(); err != nil {
		t.Fatal(err)
	}
	if _, ok := player.Visible()[tok.ID]; !ok {
		t.Error("expected the player poll to deliver the new token")
	}

	// Dragging it onto its own cell and releasing below threshold is a
	// selection, not a move.
	ctl.PointerDownToken(tok.ID, 100, 100)
	sel := ctl.PointerUp(102, 102, view, gm.Snapshot())
	if sel.Command != nil || sel.Selected != tok.ID {
		t.Errorf("expected pure selection, got %+v", sel)
	}
}

func TestClearAndSwitchOverHTTP(t *testing.T) {
	base := startTestServer(t)
	placeGuard(t, base, 3, 4)

	resp := doJSON(t, http.MethodPost, base+"/encounter/tokens/clear", "gm", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	for _, role := range []encounter.Role{encounter.RoleGM, encounter.RolePlayer} {
		p := client.NewPoller(base, role)
		if err := p.PollOnce(); err != nil {
			t.Fatal(err)
		}
		if got := len(p.Visible()); got != 0 {
			t.Errorf("expected %s to see an empty set, got %d", role, got)
		}
	}

	// Switching to an unknown encounter fails and changes nothing.
	resp = doJSON(t, http.MethodPost, base+"/encounter/switch", "gm", encounter.SwitchPayload{EncounterID: "ghost-ship"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown encounter, got %d", resp.StatusCode)
	}
}

func TestPollLoopDeliversUpdates(t *testing.T) {
	base := startTestServer(t)

	updates := make(chan struct{}, 8)
	player := client.NewPoller(base, encounter.RolePlayer)
	player.OnUpdate(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	player.Start(50 * time.Millisecond)
	defer player.Stop()

	placeGuard(t, base, 3, 4)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-updates:
			if len(player.Visible()) == 1 {
				return
			}
		case <-deadline:
			t.Fatal("poll loop never delivered the placed token")
		}
	}
}
