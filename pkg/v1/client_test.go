package v1

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal"
)

func testEmbedder() Option {
	return WithEmbedder(func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}, 3)
}

func TestClientStoreAndGet(t *testing.T) {
	client, err := New(testEmbedder())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	res, err := client.Store(ctx, Capture{
		URL:   "https://blog.example.com/post",
		Title: "A post about Go",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.MemoryID)

	mem, err := client.Get(ctx, res.MemoryID)
	require.NoError(t, err)
	require.Equal(t, "blog.example.com", mem.Domain)
	require.False(t, mem.CapturedAt.IsZero())
}

func TestClientSearch(t *testing.T) {
	client, err := New(testEmbedder())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	res, err := client.Store(ctx, Capture{
		URL:   "https://blog.example.com/post",
		Title: "A post about Go",
	})
	require.NoError(t, err)

	hits, err := client.Search(ctx, "go posts", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, res.MemoryID, hits[0].Memory.ID)
}

func TestClientSearchWithoutEmbedder(t *testing.T) {
	client, err := New()
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Search(context.Background(), "anything", SearchOptions{})
	require.Error(t, err, "search needs an embedding provider")
}

func TestClientExportImport(t *testing.T) {
	client, err := New(testEmbedder())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	_, err = client.Store(ctx, Capture{URL: "https://example.com/a", Title: "One"})
	require.NoError(t, err)

	blob, err := client.Export(ctx)
	require.NoError(t, err)

	fresh, err := New(testEmbedder())
	require.NoError(t, err)
	defer fresh.Close()

	require.NoError(t, fresh.Import(ctx, blob))

	stats, err := fresh.Analytics(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalRecords)
}

func TestClientSnapshotsWithDataDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, internal.InitSnapshotStore(dir))

	client, err := New(testEmbedder(), WithDataDir(dir))
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	_, err = client.Store(ctx, Capture{URL: "https://example.com/a", Title: "One"})
	require.NoError(t, err)

	snap, err := client.Save(ctx, "first save")
	require.NoError(t, err)
	require.NotEmpty(t, snap.Hash)

	// A second client on the same data dir restores the saved state.
	reopened, err := New(testEmbedder(), WithDataDir(dir))
	require.NoError(t, err)
	defer reopened.Close()

	stats, err := reopened.Analytics(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalRecords)

	history, err := reopened.History(ctx, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(history), 2)
}

func TestClientCapacityEviction(t *testing.T) {
	client, err := New(testEmbedder(), WithCapacity(2))
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	for _, path := range []string{"a", "b", "c"} {
		_, err := client.Store(ctx, Capture{URL: "https://example.com/" + path, Title: path})
		require.NoError(t, err)
	}

	stats, err := client.Analytics(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalRecords)
}
