// Headless harness: boots a fresh world and lets the agents play a few turns
// against the real Gemini API, printing the transcript as it grows. Useful
// for eyeballing agent behavior without the TUI.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/tatianab/zork-agents/internal/agents"
	"github.com/tatianab/zork-agents/internal/config"
	"github.com/tatianab/zork-agents/internal/engine"
	"github.com/tatianab/zork-agents/internal/session"
	"github.com/tatianab/zork-agents/internal/store"
)

const maxTurns = 10

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gemini, err := agents.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to create agents: %v", err)
	}
	defer gemini.Close()

	// Ephemeral store: simulations never touch the real snapshot db.
	st := store.New(nil)
	eng := engine.New(st, gemini, gemini)
	eng.SetPace(0)
	ctrl := session.New(st, eng, gemini, 0)

	fmt.Println("--- Bootstrap ---")
	ctrl.Bootstrap(ctx)
	printed := printLogs(ctrl, 0)

	for turn := 1; turn <= maxTurns; turn++ {
		fmt.Printf("--- Turn %d ---\n", turn)
		ctrl.Step(ctx)
		printed = printLogs(ctrl, printed)

		player := ctrl.Player()
		fmt.Printf("Health=%d Inventory=%v Rooms=%d\n\n", player.Health, player.Inventory, len(ctrl.Rooms()))

		if player.Health <= 0 {
			fmt.Println("Player died. Simulation over.")
			break
		}
	}
}

// printLogs prints transcript entries past the given offset and returns the
// new offset.
func printLogs(ctrl *session.Controller, from int) int {
	logs := ctrl.Logs()
	for _, entry := range logs[from:] {
		fmt.Printf("%s: %s\n", entry.Role, entry.Text)
	}
	return len(logs)
}
