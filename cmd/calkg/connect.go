package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/calkg/calkg/internal/artifact"
	"github.com/calkg/calkg/internal/connect"
	"github.com/calkg/calkg/internal/graph"
	"github.com/calkg/calkg/internal/runner"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Analyze cross-section connections between application nodes",
	Long: `Connect reads fragments produced by extract, pairs up application
nodes from different sections, and asks the model whether each pair is
technically connected. Weak or malformed connections are dropped.`,
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().Int("workers", 8, "concurrent pair analyses")
	connectCmd.Flags().Int("retries", 3, "attempts per pair")
	connectCmd.Flags().Int("max-pairs", 1000, "sample cap on candidate pairs")
	connectCmd.Flags().Float64("min-strength", 0.3, "minimum connection strength to keep")
	connectCmd.Flags().Uint64("seed", 1, "sampling seed")

	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	store, err := artifact.NewStore(artifactsDir(cmd))
	if err != nil {
		return err
	}
	fragments, err := store.LoadFragments()
	if err != nil {
		return fmt.Errorf("loading fragments (run extract first): %w", err)
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	cfg := connect.DefaultConfig()
	cfg.MaxPairs, _ = cmd.Flags().GetInt("max-pairs")
	cfg.MinStrength, _ = cmd.Flags().GetFloat64("min-strength")
	seed, _ := cmd.Flags().GetUint64("seed")

	analyzer := connect.NewAnalyzer(client, connect.NewRandomSampler(seed), cfg, log)
	pairs := analyzer.SelectPairs(fragments)
	if len(pairs) == 0 {
		fmt.Println("No cross-section application pairs to analyze.")
		return store.SaveConnections(nil, nil)
	}

	workers, _ := cmd.Flags().GetInt("workers")
	retries, _ := cmd.Flags().GetInt("retries")
	res := runner.Run(cmd.Context(), pairs, connect.Pair.ID, analyzer.AnalyzePair,
		runner.Options{Workers: workers, MaxRetries: retries, RetryDelay: 2 * time.Second, Name: "connect", Log: log})

	var raw []*graph.Connection
	for _, conn := range res.Values {
		raw = append(raw, conn)
	}
	conns := analyzer.Validate(raw)

	var failed []string
	for id := range res.Failed {
		failed = append(failed, id)
	}

	if err := store.SaveConnections(conns, failed); err != nil {
		return err
	}

	fmt.Printf("Analyzed %d pairs: %d connections kept, %d pairs failed\n", len(pairs), len(conns), len(failed))
	for typ, n := range connect.TypeDistribution(conns) {
		fmt.Printf("  %s: %d\n", typ, n)
	}
	return nil
}
