package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"encounter-map-engine/encounter"
)

// Poller is the sync client for one view. It fetches the authoritative
// state on a fixed interval, replacing its local cache wholesale: last
// poll wins, no ordering guarantee against commands in flight. On the GM
// view it also applies successful command results optimistically so the
// GM's own edits feel instantaneous; the next poll self-heals any
// divergence.
type Poller struct {
	baseURL string
	role    encounter.Role
	httpc   *http.Client

	mu          sync.Mutex
	encounterID string
	tokens      map[string]encounter.Token
	rooms       []encounter.Room
	visibility  map[string]bool
	doors       map[string]string

	onUpdate func()
	stop     chan struct{}
}

func NewPoller(baseURL string, role encounter.Role) *Poller {
	return &Poller{
		baseURL:    baseURL,
		role:       role,
		httpc:      &http.Client{},
		tokens:     make(map[string]encounter.Token),
		visibility: make(map[string]bool),
		doors:      make(map[string]string),
	}
}

// OnUpdate registers a callback invoked after every cache replacement,
// typically to redraw.
func (p *Poller) OnUpdate(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// Start begins the poll loop. Poll failures are logged and dropped; the
// next tick is the retry.
func (p *Poller) Start(interval time.Duration) {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return
	}
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := p.PollOnce(); err != nil {
					log.Printf("warning: poll failed: %v", err)
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop ends the poll loop. In-flight requests are not cancelled; a stale
// response is simply superseded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

type encounterResponse struct {
	EncounterID    string            `json:"encounter_id"`
	Rooms          []encounter.Room  `json:"rooms"`
	RoomVisibility map[string]bool   `json:"room_visibility"`
	DoorStatus     map[string]string `json:"door_status"`
}

type tokensResponse struct {
	Tokens map[string]encounter.Token `json:"tokens"`
}

// PollOnce fetches the encounter description and the token collection and
// replaces the cache.
func (p *Poller) PollOnce() error {
	var enc encounterResponse
	if err := p.get("/encounter", &enc); err != nil {
		return err
	}
	var toks tokensResponse
	if err := p.get("/encounter/tokens", &toks); err != nil {
		return err
	}
	if toks.Tokens == nil {
		toks.Tokens = make(map[string]encounter.Token)
	}
	if enc.RoomVisibility == nil {
		enc.RoomVisibility = make(map[string]bool)
	}
	if enc.DoorStatus == nil {
		enc.DoorStatus = make(map[string]string)
	}

	p.mu.Lock()
	p.encounterID = enc.EncounterID
	p.rooms = enc.Rooms
	p.visibility = enc.RoomVisibility
	p.doors = enc.DoorStatus
	p.tokens = toks.Tokens
	fn := p.onUpdate
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Snapshot returns the cached state for local drag validation.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	tokens := make(map[string]encounter.Token, len(p.tokens))
	for id, tok := range p.tokens {
		tokens[id] = tok
	}
	roomList := make([]encounter.Room, len(p.rooms))
	copy(roomList, p.rooms)
	visibility := make(map[string]bool, len(p.visibility))
	for id, v := range p.visibility {
		visibility[id] = v
	}

	return Snapshot{Tokens: tokens, Rooms: roomList, Visibility: visibility, Role: p.role}
}

// Visible re-derives the renderable token subset from the current cache.
// The filter runs on every call; a token's visibility is never cached
// across visibility-map changes.
func (p *Poller) Visible() map[string]encounter.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	return encounter.FilterForViewer(p.tokens, p.visibility, p.role)
}

// EncounterID returns the cached active encounter id.
func (p *Poller) EncounterID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encounterID
}

// DoorStatus returns the cached door-status override for a door.
func (p *Poller) DoorStatus(doorID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.doors[doorID]
	return s, ok
}

// SendCommand issues the single command a completed drag produced and, on
// success, applies the returned token to the local cache optimistically.
// Failures are returned for the UI to surface; there is no automatic
// retry, which would risk duplicate placement.
func (p *Poller) SendCommand(cmd Command) (encounter.Token, error) {
	var (
		path    string
		payload any
	)
	switch cmd.Kind {
	case CommandPlace:
		path, payload = "/encounter/tokens", cmd.Place
	case CommandMove:
		path, payload = "/encounter/tokens/move", cmd.Move
	default:
		return encounter.Token{}, fmt.Errorf("unknown command kind %q", cmd.Kind)
	}

	var tok encounter.Token
	if err := p.post(path, payload, &tok); err != nil {
		return encounter.Token{}, err
	}

	p.mu.Lock()
	p.tokens[tok.ID] = tok
	p.mu.Unlock()
	return tok, nil
}

func (p *Poller) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	return p.do(req, out)
}

func (p *Poller) post(path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req, out)
}

func (p *Poller) do(req *http.Request, out any) error {
	req.Header.Set("X-Viewer-Role", string(p.role))

	resp, err := p.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
