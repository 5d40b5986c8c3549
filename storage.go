package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"thingforge/server/catalog"
)

// Storage persists the game file. Writes go through a temp file and rename
// so a crash mid-flush never truncates the document.
type Storage struct {
	path string
}

func newStorage(path string) *Storage {
	return &Storage{path: path}
}

// Load reads and validates the game file. A missing file yields an empty
// document rather than an error, so first launch starts a blank scene.
func (s *Storage) Load() (*catalog.GameFile, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &catalog.GameFile{}, nil
		}
		return nil, fmt.Errorf("open game file: %w", err)
	}
	defer f.Close()
	return catalog.Load(f)
}

// Flush writes the game file atomically.
func (s *Storage) Flush(file *catalog.GameFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal game file: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp game file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace game file: %w", err)
	}
	return nil
}

// debouncer coalesces bursts of dirty signals into one call to fn after
// delay. Reset while a flush is pending cancels and rearms the timer, so
// fn fires once per quiet period.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

// Reset arms (or rearms) the pending flush.
func (d *debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels any pending flush.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
