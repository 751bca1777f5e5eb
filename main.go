package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"encounter-map-engine/config"
	"encounter-map-engine/rooms"
	"encounter-map-engine/session"
	"encounter-map-engine/store"
)

var cfg = config.Load("config.json")
var manager = session.NewManager(rooms.NewDir(cfg.DataDir))

func setupApp() *fiber.App {
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,X-Viewer-Role",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Client tuning knobs, so every view drags and polls with the same
	// parameters the server was configured with.
	app.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"poll_interval_ms":  cfg.PollIntervalMs,
			"drag_threshold_px": cfg.DragThresholdPx,
			"cell_size":         cfg.CellSize,
		})
	})

	app.Get("/encounter", manager.HandleEncounter)
	app.Get("/encounter/tokens", manager.HandleTokens)
	app.Post("/encounter/tokens", manager.HandlePlace)
	app.Post("/encounter/tokens/move", manager.HandleMove)
	app.Post("/encounter/tokens/status", manager.HandleStatus)
	app.Post("/encounter/tokens/clear", manager.HandleClear)
	app.Delete("/encounter/tokens/:id", manager.HandleRemove)
	app.Post("/encounter/rooms/visibility", manager.HandleRoomVisibility)
	app.Post("/encounter/doors", manager.HandleDoorStatus)
	app.Post("/encounter/switch", manager.HandleSwitch)

	return app
}

// openStore picks the snapshot backend: Postgres when a database URL is
// configured, the embedded SQLite file otherwise.
func openStore() (store.SnapshotStore, error) {
	if cfg.DatabaseURL != "" {
		return store.NewPostgres(cfg.DatabaseURL)
	}
	return store.NewSQLite(cfg.SQLitePath)
}

func main() {
	s, err := openStore()
	if err != nil {
		log.Printf("warning: failed to open snapshot store, running without persistence: %v", err)
	} else {
		interval := time.Duration(cfg.SnapshotIntervalSec) * time.Second
		manager.SetStore(s, interval)
		manager.RestoreState()
		manager.StartPeriodicSnapshots()
		defer manager.StopPeriodicSnapshots()
		defer s.Close()
	}

	app := setupApp()
	log.Fatal(app.Listen(cfg.ListenAddr))
}
