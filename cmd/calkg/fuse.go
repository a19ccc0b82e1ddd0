package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calkg/calkg/internal/artifact"
	"github.com/calkg/calkg/internal/graph"
	"github.com/calkg/calkg/internal/graphstore"
)

var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Fuse saved artifacts into one unified knowledge graph",
	Long: `Fuse merges the main logic graph, section fragments, and
cross-section connections into a single deduplicated unified graph and
saves it as an artifact. With --db the graph is also stored in the
SQLite graph database under --doc-id.`,
	RunE: runFuse,
}

func init() {
	fuseCmd.Flags().Float64("similarity", 0.2, "keyword similarity threshold for hierarchy edges")
	fuseCmd.Flags().Float64("strong-similarity", 0.4, "similarity threshold for concept-to-application edges")
	fuseCmd.Flags().String("db", "", "SQLite database to store the graph in")
	fuseCmd.Flags().String("doc-id", "", "document ID for database storage (required with --db)")

	rootCmd.AddCommand(fuseCmd)
}

func runFuse(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	store, err := artifact.NewStore(artifactsDir(cmd))
	if err != nil {
		return err
	}
	set, err := store.LoadSections()
	if err != nil {
		return fmt.Errorf("loading sections (run split first): %w", err)
	}
	fragments, err := store.LoadFragments()
	if err != nil {
		return fmt.Errorf("loading fragments (run extract first): %w", err)
	}

	// Main graph and connections are optional: fusion still produces a
	// useful graph from fragments alone.
	main, err := store.LoadMainGraph()
	if err != nil {
		log.Warn("no main logic graph, fusing without top layer", "error", err)
		main = graph.MainGraph{}
	}
	conns, err := store.LoadConnections()
	if err != nil {
		log.Warn("no connections artifact, fusing without cross-section edges", "error", err)
		conns = nil
	}

	cfg := graph.DefaultFuseConfig()
	cfg.SimilarityThreshold, _ = cmd.Flags().GetFloat64("similarity")
	cfg.StrongSimilarityThreshold, _ = cmd.Flags().GetFloat64("strong-similarity")

	unified := graph.NewFuser(cfg, log).Fuse(set.Title, main, fragments, conns)
	if err := store.SaveUnifiedGraph(unified); err != nil {
		return err
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		docID, _ := cmd.Flags().GetString("doc-id")
		if docID == "" {
			return fmt.Errorf("--doc-id is required with --db")
		}
		db, err := graphstore.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Put(cmd.Context(), docID, unified); err != nil {
			return err
		}
		fmt.Printf("Stored graph %s in %s\n", docID, dbPath)
	}

	st := unified.Statistics
	fmt.Printf("Fused graph %q: %d nodes, %d edges (%d main, %d concepts, %d technologies, %d applications, %d cross-section edges)\n",
		unified.Title, st.TotalNodes, st.TotalEdges,
		st.MainLogicNodes, st.BasicConceptNodes, st.CoreTechnologyNodes,
		st.CircuitApplicationNodes, st.CrossSectionEdges)
	return nil
}
