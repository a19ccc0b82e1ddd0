package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calkg/calkg/internal/artifact"
	"github.com/calkg/calkg/internal/mainlogic"
)

var mainlogicCmd = &cobra.Command{
	Use:   "mainlogic",
	Short: "Generate the document's main logic graph from saved sections",
	Long: `Mainlogic reads sections produced by split, summarizes each with a
short preview, and asks the model for the document's main knowledge
points and the relationships between sections. The result is the top
layer of the unified graph.`,
	RunE: runMainlogic,
}

func init() {
	rootCmd.AddCommand(mainlogicCmd)
}

func runMainlogic(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	store, err := artifact.NewStore(artifactsDir(cmd))
	if err != nil {
		return err
	}
	set, err := store.LoadSections()
	if err != nil {
		return fmt.Errorf("loading sections (run split first): %w", err)
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	main, err := mainlogic.New(client, log).Generate(cmd.Context(), set)
	if err != nil {
		return err
	}
	if err := store.SaveMainGraph(main); err != nil {
		return err
	}

	fmt.Printf("Generated main logic graph: %d nodes, %d edges\n", len(main.Nodes), len(main.Edges))
	return nil
}
