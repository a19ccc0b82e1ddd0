package graphstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calkg/calkg/internal/graph"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "graphs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testGraph(title string) *graph.UnifiedGraph {
	g := &graph.UnifiedGraph{
		Title: title,
		Nodes: []graph.Node{
			{ID: "bc_1", Label: "Concept", Type: graph.BasicConcept, SectionNum: "1.1",
				Level: 1, Keywords: []string{"gain"}},
			{ID: "ca_1", Label: "Application", Type: graph.CircuitApplication, SectionNum: "1.1",
				Level: 3},
		},
		Edges: []graph.Edge{
			{SourceID: "bc_1", TargetID: "ca_1", Relationship: "supports", Weight: 0.6,
				Kind: graph.KindHierarchical},
		},
	}
	g.Statistics = graph.Statistics{
		TotalNodes: 2, TotalEdges: 1, BasicConceptNodes: 1, CircuitApplicationNodes: 1,
	}
	return g
}

func TestPutGetRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	want := testGraph("Electronics")

	require.NoError(t, store.Put(ctx, "doc-1", want))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, want.Title, got.Title)
	require.Equal(t, want.Statistics, got.Statistics)
	require.Equal(t, want.Nodes, got.Nodes)
	require.Equal(t, want.Edges, got.Edges)
}

func TestPutReplacesExisting(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "doc-1", testGraph("First")))

	replacement := &graph.UnifiedGraph{
		Title: "Second",
		Nodes: []graph.Node{{ID: "only", Label: "Only", Type: graph.BasicConcept, Level: 1}},
	}
	replacement.Statistics = graph.Statistics{TotalNodes: 1, BasicConceptNodes: 1}
	require.NoError(t, store.Put(ctx, "doc-1", replacement))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "Second", got.Title)
	require.Len(t, got.Nodes, 1)
	require.Empty(t, got.Edges)
}

func TestGetMissing(t *testing.T) {
	store := testStore(t)
	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "doc-a", testGraph("A")))
	require.NoError(t, store.Put(ctx, "doc-b", testGraph("B")))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byID := map[string]GraphInfo{}
	for _, info := range infos {
		byID[info.DocID] = info
	}
	require.Equal(t, "A", byID["doc-a"].Title)
	require.Equal(t, 2, byID["doc-a"].TotalNodes)
	require.Equal(t, 1, byID["doc-a"].TotalEdges)
	require.False(t, byID["doc-a"].CreatedAt.IsZero())
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "doc-1", testGraph("G")))
	require.NoError(t, store.Delete(ctx, "doc-1"))

	_, err := store.Get(ctx, "doc-1")
	require.ErrorIs(t, err, ErrNotFound)

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestDeleteMissing(t *testing.T) {
	store := testStore(t)
	err := store.Delete(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}
