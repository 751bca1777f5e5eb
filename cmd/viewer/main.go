// Command viewer is a read-only terminal view of the active encounter: it
// polls the engine and redraws the visible token grid, the same way a
// player display terminal does.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"encounter-map-engine/client"
	"encounter-map-engine/config"
	"encounter-map-engine/encounter"
)

func main() {
	var (
		server = flag.String("server", "http://localhost:3000", "engine base URL")
		role   = flag.String("role", "player", "viewer role (gm or player)")
		width  = flag.Int("width", 24, "grid columns to draw")
		height = flag.Int("height", 14, "grid rows to draw")
	)
	flag.Parse()

	cfg := config.Load("config.json")

	p := client.NewPoller(*server, encounter.Role(*role))
	r := client.NewTextRenderer(os.Stdout, *width, *height)

	p.OnUpdate(func() {
		fmt.Printf("\n== encounter %s ==\n", p.EncounterID())
		if err := r.Draw(p.Visible(), nil); err != nil {
			log.Printf("warning: draw failed: %v", err)
		}
	})

	if err := p.PollOnce(); err != nil {
		log.Printf("warning: initial poll failed: %v", err)
	}
	p.Start(time.Duration(cfg.PollIntervalMs) * time.Millisecond)
	defer p.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
