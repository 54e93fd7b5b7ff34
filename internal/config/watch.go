package config

import (
	"context"
	"fmt"
	"os"
	"time"
)

// aircraftWatcher polls aircraft.yaml and reloads it when its mtime moves.
type aircraftWatcher struct {
	path     string
	lastMod  time.Time
	failing  bool
	onUpdate func(*AircraftConfig)
	onError  func(error)
}

// WatchAircraft loads aircraft.yaml, hands it to onUpdate and then polls the
// file every interval until ctx is done. A failed reload keeps the previous
// catalog in place and is reported to onError once per file change.
func WatchAircraft(ctx context.Context, path string, interval time.Duration, onUpdate func(*AircraftConfig), onError func(error)) error {
	if path == "" {
		path = "configs/aircraft.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	w := &aircraftWatcher{path: path, onUpdate: onUpdate, onError: onError}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat aircraft config: %w", err)
	}
	cfg, err := LoadAircraftConfig(path)
	if err != nil {
		return err
	}
	w.lastMod = info.ModTime()
	w.update(cfg)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.poll()
			}
		}
	}()

	return nil
}

func (w *aircraftWatcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		// Report a missing file once, not on every tick.
		if !w.failing {
			w.failing = true
			w.report(fmt.Errorf("stat aircraft config %s: %w", w.path, err))
		}
		return
	}
	if !info.ModTime().After(w.lastMod) {
		return
	}
	w.lastMod = info.ModTime()

	cfg, err := LoadAircraftConfig(w.path)
	if err != nil {
		w.failing = true
		w.report(fmt.Errorf("reload %s: %w", w.path, err))
		return
	}
	w.failing = false
	w.update(cfg)
}

func (w *aircraftWatcher) update(cfg *AircraftConfig) {
	if w.onUpdate != nil {
		w.onUpdate(cfg)
	}
}

func (w *aircraftWatcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
