package config

import (
	"encoding/json"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr          string `json:"listenAddr" env:"LISTEN_ADDR"`
	DatabaseURL         string `json:"databaseURL" env:"DATABASE_URL"`
	SQLitePath          string `json:"sqlitePath" env:"SQLITE_PATH"`
	DataDir             string `json:"dataDir" env:"DATA_DIR"`
	SnapshotIntervalSec int    `json:"snapshotIntervalSec" env:"SNAPSHOT_INTERVAL_SEC"`
	PollIntervalMs      int    `json:"pollIntervalMs" env:"POLL_INTERVAL_MS"`
	DragThresholdPx     int    `json:"dragThresholdPx" env:"DRAG_THRESHOLD_PX"`
	CellSize            int    `json:"cellSize" env:"CELL_SIZE"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:          ":3000",
		DatabaseURL:         "",
		SQLitePath:          "session.db",
		DataDir:             "data",
		SnapshotIntervalSec: 30,
		PollIntervalMs:      2000,
		DragThresholdPx:     5,
		CellSize:            96,
	}
}

// Load reads a JSON config file at path and applies environment variable
// overrides on top. If the file is missing or invalid, it logs a warning
// and continues from DefaultConfig(). Partial JSON is merged with defaults.
func Load(path string) Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("warning: could not read config file %q, using defaults: %v", path, err)
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("warning: invalid JSON in config file %q, using defaults: %v", path, err)
		cfg = DefaultConfig()
	}

	if err := env.Parse(&cfg); err != nil {
		log.Printf("warning: could not parse environment overrides: %v", err)
	}

	return cfg
}
