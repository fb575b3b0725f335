// Package session drives the game: bootstrap on first run, manual stepping,
// the timed autoplay loop, and the read-only projections the presentation
// layer consumes.
package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tatianab/zork-agents/internal/engine"
	"github.com/tatianab/zork-agents/internal/models"
	"github.com/tatianab/zork-agents/internal/store"
)

// DefaultInterval is the autoplay cadence between turns.
const DefaultInterval = 4 * time.Second

// RoomGenerator synthesizes the starting room for a fresh world. The Gemini
// implementation falls back to a fixed room on API failure, so bootstrap
// only fails on truly unexpected errors.
type RoomGenerator interface {
	StartRoom(ctx context.Context) (models.Room, error)
}

// Controller wires the store and engine together and owns the autoplay loop.
type Controller struct {
	store     *store.Store
	engine    *engine.Engine
	generator RoomGenerator
	interval  time.Duration

	autoplay atomic.Bool
	tick     atomic.Int64
}

// New builds a controller. A zero interval selects the default cadence.
// Autoplay resumes in whatever state the persisted settings left it.
func New(st *store.Store, eng *engine.Engine, gen RoomGenerator, interval time.Duration) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Controller{store: st, engine: eng, generator: gen, interval: interval}
	c.autoplay.Store(st.Settings().AutoPlay)
	return c
}

// Bootstrap prepares the session. An empty transcript means a fresh world:
// synthesize the starting room, position the player there, narrate it. A
// non-empty transcript means the persisted world is already loaded, so
// bootstrapping again is a no-op beyond marking the game active.
func (c *Controller) Bootstrap(ctx context.Context) {
	if len(c.store.Logs()) == 0 {
		c.store.AppendLog(models.RoleSystem, "Initializing Gemini Zork World...")

		room, err := c.generator.StartRoom(ctx)
		if err != nil {
			slog.Warn("start room generation failed", "error", err)
			c.store.AppendLog(models.RoleSystem, "Error initializing world.")
			c.bump()
			return
		}
		c.store.UpsertRoom(room)
		c.store.UpdatePlayer(models.PlayerPatch{CurrentRoomID: &room.ID})
		c.store.AppendLog(models.RoleGM, room.Description)
	}

	active := true
	c.store.UpdateSettings(models.SettingsPatch{GameActive: &active})
	c.bump()
}

// Step runs exactly one turn if none is in flight.
func (c *Controller) Step(ctx context.Context) {
	if c.engine.InFlight() {
		return
	}
	c.engine.ExecuteTurn(ctx)
	c.bump()
}

// ToggleAutoPlay flips the autoplay flag and returns the new value. The
// running loop picks the change up on its next tick; a turn already in
// flight runs to completion.
func (c *Controller) ToggleAutoPlay() bool {
	enabled := !c.autoplay.Load()
	c.autoplay.Store(enabled)
	c.store.UpdateSettings(models.SettingsPatch{AutoPlay: &enabled})
	c.bump()
	return enabled
}

// AutoPlay reports whether autoplay is currently enabled.
func (c *Controller) AutoPlay() bool {
	return c.autoplay.Load()
}

// Reset disables autoplay, wipes the store back to the initial empty world,
// and re-bootstraps.
func (c *Controller) Reset(ctx context.Context) {
	c.autoplay.Store(false)
	c.store.Reset()
	c.bump()
	c.Bootstrap(ctx)
}

// Run is the autoplay loop. It blocks until the context is cancelled. Ticks
// are no-ops while autoplay is off or a turn is already executing.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.autoplay.Load() || c.engine.InFlight() {
				continue
			}
			c.engine.ExecuteTurn(ctx)
			c.bump()
		}
	}
}

func (c *Controller) bump() {
	c.tick.Add(1)
}

// Tick is a monotonic counter bumped after every controller-driven mutation,
// letting the presentation layer cheaply detect staleness.
func (c *Controller) Tick() int64 {
	return c.tick.Load()
}

// InFlight reports whether a turn is currently executing.
func (c *Controller) InFlight() bool {
	return c.engine.InFlight()
}

// Rooms projects all known rooms.
func (c *Controller) Rooms() []models.Room {
	return c.store.Rooms()
}

// Player projects the player record.
func (c *Controller) Player() models.PlayerState {
	return c.store.Player()
}

// CurrentRoom projects the room the player occupies, if it exists.
func (c *Controller) CurrentRoom() (models.Room, bool) {
	return c.store.Room(c.store.Player().CurrentRoomID)
}

// Logs projects the transcript, oldest first.
func (c *Controller) Logs() []models.LogEntry {
	return c.store.Logs()
}

// Settings projects the session settings.
func (c *Controller) Settings() models.Settings {
	return c.store.Settings()
}

// Export renders the diagnostic database dump.
func (c *Controller) Export() string {
	return c.store.ExportSnapshot()
}
