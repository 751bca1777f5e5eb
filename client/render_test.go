package client

import (
	"strings"
	"testing"

	"encounter-map-engine/encounter"
	"encounter-map-engine/grid"
)

func TestTextRendererDraw(t *testing.T) {
	var b strings.Builder
	r := NewTextRenderer(&b, 5, 3)

	tokens := map[string]encounter.Token{
		"t1": {ID: "t1", Name: "Doe", Position: grid.Cell{X: 1, Y: 0}},
		"t2": {ID: "t2", Name: "guard", Position: grid.Cell{X: 4, Y: 2}},
	}
	ghost := &Ghost{Cell: grid.Cell{X: 2, Y: 1}, Name: "Sentry"}

	if err := r.Draw(tokens, ghost); err != nil {
		t.Fatalf("draw failed: %v", err)
	}

	want := ".D...\n" +
		"..+..\n" +
		"....G\n"
	if b.String() != want {
		t.Errorf("unexpected frame:\n%s\nwant:\n%s", b.String(), want)
	}
}

func TestTextRendererEmptyFrame(t *testing.T) {
	var b strings.Builder
	r := NewTextRenderer(&b, 2, 2)

	if err := r.Draw(nil, nil); err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if b.String() != "..\n..\n" {
		t.Errorf("unexpected empty frame: %q", b.String())
	}
}

func TestComposeFrameSuppressesDraggedToken(t *testing.T) {
	f := newFakeServer()
	srv := newTestHTTPServer(t, f)

	p := NewPoller(srv.URL, encounter.RoleGM)
	if err := p.PollOnce(); err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	d := newTestController()
	d.PointerDownToken("t1", 10, 10)
	d.PointerMove(500, 500, identity)

	tokens, ghost := ComposeFrame(p, d)

	if _, ok := tokens["t1"]; ok {
		t.Error("dragged token must be suppressed from the frame")
	}
	if _, ok := tokens["t2"]; !ok {
		t.Error("other tokens still render")
	}
	if ghost == nil {
		t.Fatal("expected a ghost in the frame")
	}
	if ghost.Cell != (grid.Cell{X: 5, Y: 5}) {
		t.Errorf("expected ghost at (5,5), got %+v", ghost.Cell)
	}
	if ghost.Name != "Doe" {
		t.Errorf("expected ghost named Doe, got %q", ghost.Name)
	}
}

func TestComposeFrameIdle(t *testing.T) {
	f := newFakeServer()
	srv := newTestHTTPServer(t, f)

	p := NewPoller(srv.URL, encounter.RoleGM)
	if err := p.PollOnce(); err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	tokens, ghost := ComposeFrame(p, newTestController())

	if len(tokens) != 2 {
		t.Errorf("expected full visible set, got %d", len(tokens))
	}
	if ghost != nil {
		t.Error("no ghost outside an active drag")
	}
}
