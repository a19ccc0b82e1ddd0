package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/calkg/calkg/internal/artifact"
	"github.com/calkg/calkg/internal/extract"
	"github.com/calkg/calkg/internal/graph"
	"github.com/calkg/calkg/internal/runner"
	"github.com/calkg/calkg/internal/splitter"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract knowledge graph fragments from saved sections",
	Long: `Extract reads sections produced by split and distills each into a
graph fragment of basic concepts, core technologies, and circuit
applications. Sections where the model response cannot be parsed fall
back to rule-based paragraph extraction.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Int("workers", 8, "concurrent section extractions")
	extractCmd.Flags().Int("retries", 3, "attempts per section")
	extractCmd.Flags().Int("min-chars", 200, "skip sections shorter than this")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	store, err := artifact.NewStore(artifactsDir(cmd))
	if err != nil {
		return err
	}
	set, err := store.LoadSections()
	if err != nil {
		return fmt.Errorf("loading sections (run split first): %w", err)
	}

	minChars, _ := cmd.Flags().GetInt("min-chars")
	var sections []splitter.Section
	for _, sec := range set.Sections {
		if len(sec.Content) >= minChars {
			sections = append(sections, sec)
		}
	}
	if len(sections) == 0 {
		return fmt.Errorf("no sections with at least %d characters", minChars)
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	extractor := extract.New(client, extract.NewRuleExtractor(nil), extract.DefaultConfig(), log)

	workers, _ := cmd.Flags().GetInt("workers")
	retries, _ := cmd.Flags().GetInt("retries")
	res := runner.Run(cmd.Context(), sections,
		func(sec splitter.Section) string { return sec.SectionNum },
		extractor.Extract,
		runner.Options{Workers: workers, MaxRetries: retries, RetryDelay: 2 * time.Second, Name: "extract", Log: log})

	var fragments []graph.Fragment
	for _, frag := range res.Values {
		fragments = append(fragments, frag)
	}
	sort.Slice(fragments, func(i, j int) bool { return fragments[i].SectionNum < fragments[j].SectionNum })

	var failed []string
	for id := range res.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)

	if err := store.SaveFragments(fragments, failed); err != nil {
		return err
	}

	nodes, edges := 0, 0
	for _, frag := range fragments {
		nodes += len(frag.Nodes)
		edges += len(frag.Edges)
	}
	fmt.Printf("Extracted %d fragments (%d nodes, %d edges), %d sections failed\n",
		len(fragments), nodes, edges, len(failed))
	return nil
}
