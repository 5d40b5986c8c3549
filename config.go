package main

import (
	"os"
	"strconv"
	"time"
)

// hostConfig collects everything the host reads from the environment.
// Zero values are filled by normalized().
type hostConfig struct {
	Addr         string
	GamePath     string
	Seed         string
	TickRate     int
	SaveDebounce time.Duration
	LogLevel     string
	LogJSONPath  string
}

func loadConfig() hostConfig {
	cfg := hostConfig{
		Addr:        os.Getenv("THINGFORGE_ADDR"),
		GamePath:    os.Getenv("THINGFORGE_GAME_FILE"),
		Seed:        os.Getenv("THINGFORGE_SEED"),
		LogLevel:    os.Getenv("THINGFORGE_LOG_LEVEL"),
		LogJSONPath: os.Getenv("THINGFORGE_LOG_JSON"),
	}
	if raw := os.Getenv("THINGFORGE_TICK_RATE"); raw != "" {
		if rate, err := strconv.Atoi(raw); err == nil {
			cfg.TickRate = rate
		}
	}
	if raw := os.Getenv("THINGFORGE_SAVE_DEBOUNCE_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil {
			cfg.SaveDebounce = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg.normalized()
}

// normalized fills defaults for unset fields and clamps nonsense values.
func (c hostConfig) normalized() hostConfig {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.GamePath == "" {
		c.GamePath = "game.json"
	}
	if c.TickRate <= 0 || c.TickRate > 120 {
		c.TickRate = 60
	}
	if c.SaveDebounce <= 0 {
		c.SaveDebounce = 500 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}
