package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tatianab/zork-agents/internal/agents"
	"github.com/tatianab/zork-agents/internal/config"
	"github.com/tatianab/zork-agents/internal/engine"
	"github.com/tatianab/zork-agents/internal/session"
	"github.com/tatianab/zork-agents/internal/store"
	"github.com/tatianab/zork-agents/internal/tui"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	snaps, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		fmt.Printf("Error opening snapshot db: %v\n", err)
		os.Exit(1)
	}
	defer snaps.Close()

	gemini, err := agents.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		fmt.Printf("Error creating agents: %v\n", err)
		os.Exit(1)
	}
	defer gemini.Close()

	st := store.New(snaps)
	eng := engine.New(st, gemini, gemini)
	eng.SetPace(cfg.PaceDelay)

	ctrl := session.New(st, eng, gemini, cfg.AutoPlayInterval)
	ctrl.Bootstrap(ctx)
	go ctrl.Run(ctx)

	if err := tui.Run(ctx, ctrl); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
