package main

import (
	"context"
	"testing"
	"time"

	"github.com/retracehq/retrace/internal"
	"github.com/spf13/cobra"
)

// cannedEmbedder avoids any network dependency in command tests.
type cannedEmbedder struct{}

func (cannedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (cannedEmbedder) Dimension() int { return 3 }

func newTestApp(t *testing.T) *app {
	t.Helper()

	dir := t.TempDir()
	cfg := internal.DefaultConfig()
	cfg.DataDir = dir

	store := internal.NewMemoryStore(cfg.Capacity)
	query, err := internal.NewQueryEngine(store, cannedEmbedder{})
	if err != nil {
		t.Fatalf("new query engine: %v", err)
	}
	svc := internal.NewMemoryService(store, query, cannedEmbedder{}, nil, nil, nil, time.Second)

	return &app{
		cfg:   cfg,
		store: store,
		svc:   svc,
	}
}

func fixedLoader(a *app) appLoader {
	return func(cmd *cobra.Command) (*app, error) {
		return a, nil
	}
}

func storeTestMemory(t *testing.T, a *app, url string) string {
	t.Helper()

	out, err := a.svc.StoreMemory(context.Background(), internal.RawCapture{
		URL:  url,
		Text: &internal.TextAnalysis{Title: "Test page"},
	})
	if err != nil {
		t.Fatalf("store memory: %v", err)
	}
	return out.MemoryID
}
