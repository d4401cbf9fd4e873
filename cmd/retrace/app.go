package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/retracehq/retrace/internal"
	"github.com/spf13/cobra"
)

// app wires the store, query engine and service together from the
// on-disk config. Optional collaborators degrade to nil: a missing
// embedding server still lets every non-search command work.
type app struct {
	cfg       *internal.Config
	store     *internal.MemoryStore
	svc       *internal.MemoryService
	snapshots *internal.SnapshotStore

	// serializes snapshot commits between the autosave loop and the
	// shutdown path.
	persistMu sync.Mutex
}

// appLoader builds the app for a command invocation. Commands take it
// as a parameter so tests can inject a prebuilt app.
type appLoader func(cmd *cobra.Command) (*app, error)

// loadApp is the production loader: read the config, assemble the
// service and restore the last committed state.
func loadApp(cmd *cobra.Command) (*app, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	a, err := newApp(cmd.Context(), dataDir)
	if err != nil {
		return nil, err
	}

	if err := a.restore(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not restore state: %v\n", err)
	}
	return a, nil
}

func newApp(ctx context.Context, dataDir string) (*app, error) {
	if dataDir == "" {
		dataDir = internal.DefaultDataDir()
	}

	cfg, err := internal.LoadConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	store := internal.NewMemoryStore(cfg.Capacity)
	embedder := newEmbedder(cfg)

	query, err := internal.NewQueryEngine(store, embedder)
	if err != nil {
		return nil, fmt.Errorf("create query engine: %w", err)
	}

	analyzer := newAnalyzer(ctx, cfg)

	// A broken blocklist file should not brick the CLI.
	blocklist, _ := internal.NewBlocklist(cfg.ResolveDataDir())

	// Nil until `retrace init` has run.
	snapshots, _ := internal.NewSnapshotStore(cfg.ResolveDataDir())

	svc := internal.NewMemoryService(store, query, embedder, analyzer, blocklist, snapshots, cfg.Timeout())

	return &app{
		cfg:       cfg,
		store:     store,
		svc:       svc,
		snapshots: snapshots,
	}, nil
}

func newEmbedder(cfg *internal.Config) internal.Embedder {
	e := cfg.Embedding
	switch e.Backend {
	case "ollama":
		return internal.NewOllamaEmbedder(e.BaseURL, e.Model, e.Dimension)
	case "openai-compat":
		return internal.NewOpenAICompatEmbedder(e.BaseURL, e.APIKey, e.Model, e.Dimension)
	default:
		return nil
	}
}

func newAnalyzer(ctx context.Context, cfg *internal.Config) *internal.CaptureAnalyzer {
	if cfg.Analysis.Provider == "" {
		return nil
	}

	provider, err := internal.NewFantasyProvider(ctx, internal.FantasyConfig{
		Provider: cfg.Analysis.Provider,
		APIKey:   cfg.Analysis.APIKey,
		BaseURL:  cfg.Analysis.BaseURL,
		Model:    cfg.Analysis.Model,
	})
	if err != nil {
		return nil
	}

	return internal.NewCaptureAnalyzer(provider, cfg.Timeout())
}

// restore imports the last committed snapshot into the store. A fresh
// or uninitialized data dir just starts empty.
func (a *app) restore(ctx context.Context) error {
	if a.snapshots == nil {
		return nil
	}
	return a.svc.RestoreSnapshot(ctx, "")
}

// persist commits the current store state. Mutating commands call it
// before exiting so the in-memory store survives across invocations.
func (a *app) persist(ctx context.Context) error {
	if a.snapshots == nil {
		return nil
	}
	a.persistMu.Lock()
	defer a.persistMu.Unlock()
	_, err := a.svc.SaveSnapshot(ctx, "")
	return err
}
