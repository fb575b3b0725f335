// Package engine runs one game turn at a time: ask the player agent for an
// action, hand it to the game master for resolution, apply the resulting
// world delta to the store. At most one turn is ever in flight.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tatianab/zork-agents/internal/models"
	"github.com/tatianab/zork-agents/internal/store"
)

// State is the engine's position in the per-turn state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingAction
	StateAwaitingResolution
	StateApplying
	StateFailed
)

// DefaultPace is the dramatic pause between the player's action and the
// GM's resolution.
const DefaultPace = 800 * time.Millisecond

// transcriptWindow bounds how much recent transcript the player agent sees.
const transcriptWindow = 5

// PlayerAgent chooses the player's next action. Implementations absorb their
// own API-level failures (substituting "wait"); a returned error is treated
// as unexpected and aborts the turn.
type PlayerAgent interface {
	Action(ctx context.Context, room models.Room, transcript []string, inventory []string) (string, error)
}

// GameMaster resolves a player action into a narrative plus optional world
// deltas. Implementations absorb their own API-level failures (substituting
// a bare confusion narrative); a returned error aborts the turn.
type GameMaster interface {
	Resolve(ctx context.Context, action string, current models.Room, known map[string]models.Room, player models.PlayerState) (models.Resolution, error)
}

// Engine owns the turn state machine. It holds no persistent state of its
// own; everything durable lives in the store.
type Engine struct {
	store  *store.Store
	player PlayerAgent
	gm     GameMaster
	pace   time.Duration
	offset func() int // ±1 jitter per axis for rooms without coordinates

	mu    sync.Mutex
	state State
}

// New builds an engine over the given store and agents.
func New(st *store.Store, player PlayerAgent, gm GameMaster) *Engine {
	return &Engine{
		store:  st,
		player: player,
		gm:     gm,
		pace:   DefaultPace,
		offset: randomOffset,
	}
}

// SetPace overrides the inter-step pacing delay. Zero disables it.
func (e *Engine) SetPace(d time.Duration) {
	e.pace = d
}

func randomOffset() int {
	if rand.IntN(2) == 0 {
		return -1
	}
	return 1
}

// State reports the engine's current turn state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// InFlight reports whether a turn is currently executing.
func (e *Engine) InFlight() bool {
	return e.State() != StateIdle
}

// begin claims the in-flight slot. Starting a turn while one is executing is
// a defensive no-op even though callers are expected to check first.
func (e *Engine) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return false
	}
	e.state = StateAwaitingAction
	return true
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// ExecuteTurn runs a single full turn. Errors never escape: collaborator
// failures surface as a SYSTEM transcript entry and the engine returns to
// idle, leaving the store in whatever partial state preceded the failure.
func (e *Engine) ExecuteTurn(ctx context.Context) {
	if !e.begin() {
		return
	}
	defer e.setState(StateIdle)

	player := e.store.Player()
	room, ok := e.store.Room(player.CurrentRoomID)
	if !ok {
		// Fatal for the turn, not the process. Neither agent is contacted.
		e.store.AppendLog(models.RoleSystem, "CRITICAL ERROR: Player in void.")
		return
	}

	action, err := e.player.Action(ctx, room, transcriptTail(e.store.Logs()), player.Inventory)
	if err != nil {
		e.fail(ctx, fmt.Errorf("player agent: %w", err))
		return
	}
	e.store.AppendLog(models.RolePlayer, "> "+action)

	// Dramatic pause before resolution. Pacing only; teardown cancels it.
	if !e.pause(ctx) {
		return
	}

	e.setState(StateAwaitingResolution)
	known := make(map[string]models.Room)
	for _, r := range e.store.Rooms() {
		known[r.ID] = r
	}
	resolution, err := e.gm.Resolve(ctx, action, room, known, e.store.Player())
	if err != nil {
		e.fail(ctx, fmt.Errorf("game master: %w", err))
		return
	}

	e.setState(StateApplying)
	e.apply(resolution, room)

	turns := e.store.Settings().TurnCount + 1
	e.store.UpdateSettings(models.SettingsPatch{TurnCount: &turns})
}

// apply writes the resolution's deltas to the store in order. Each step is
// independently skippable: an absent field is simply not applied.
func (e *Engine) apply(resolution models.Resolution, current models.Room) {
	e.store.AppendLog(models.RoleGM, resolution.Narrative)

	if nr := resolution.NewRoom; nr != nil && nr.ID != "" {
		if _, exists := e.store.Room(nr.ID); !exists {
			room := models.Room{
				ID:          nr.ID,
				Name:        nr.Name,
				Description: nr.Description,
				Exits:       nr.Exits,
				Items:       nr.Items,
			}
			if nr.Coordinates != nil {
				room.Coordinates = *nr.Coordinates
			} else {
				// Jitter fallback: the resolver gave no placement, so park
				// the room one step off the current one on each axis.
				room.Coordinates = models.Coordinates{
					X: current.Coordinates.X + e.offset(),
					Y: current.Coordinates.Y + e.offset(),
				}
			}
			e.store.UpsertRoom(room)
		}
	}

	if id := resolution.MovedToRoomID; id != "" {
		// No existence check: a dangling reference is caught at the start
		// of the next turn.
		e.store.UpdatePlayer(models.PlayerPatch{CurrentRoomID: &id})
	}

	if pu := resolution.PlayerUpdate; pu != nil {
		inventory := mergeInventory(e.store.Player().Inventory, pu.InventoryToAdd, pu.InventoryToRemove)
		patch := models.PlayerPatch{Inventory: &inventory}
		if pu.Health != nil {
			patch.Health = pu.Health
		}
		e.store.UpdatePlayer(patch)
	}
}

// mergeInventory unions additions in first, then filters removals out of the
// combined list, so removing an item added in the same delta cancels it.
func mergeInventory(current, add, remove []string) []string {
	merged := make([]string, 0, len(current)+len(add))
	merged = append(merged, current...)
	merged = append(merged, add...)
	if len(remove) == 0 {
		return merged
	}

	drop := make(map[string]bool, len(remove))
	for _, item := range remove {
		drop[item] = true
	}
	kept := merged[:0]
	for _, item := range merged {
		if !drop[item] {
			kept = append(kept, item)
		}
	}
	return kept
}

// pause blocks for the pacing delay. Returns false if the context was
// cancelled first; the timer never outlives the turn.
func (e *Engine) pause(ctx context.Context) bool {
	if e.pace <= 0 {
		return true
	}
	timer := time.NewTimer(e.pace)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// fail aborts the turn. Session teardown is not an agent error and gets no
// transcript entry; everything else does.
func (e *Engine) fail(ctx context.Context, err error) {
	e.setState(StateFailed)
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		slog.Debug("turn cancelled", "error", err)
		return
	}
	slog.Warn("turn aborted", "error", err)
	e.store.AppendLog(models.RoleSystem, "The agents encountered an error. The world holds its breath.")
}

// transcriptTail formats the most recent transcript entries as "role: text"
// lines for the player agent's context window.
func transcriptTail(logs []models.LogEntry) []string {
	if len(logs) > transcriptWindow {
		logs = logs[len(logs)-transcriptWindow:]
	}
	tail := make([]string, 0, len(logs))
	for _, entry := range logs {
		tail = append(tail, string(entry.Role)+": "+entry.Text)
	}
	return tail
}
