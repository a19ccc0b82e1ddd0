package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/calkg/calkg/internal/config"
	"github.com/calkg/calkg/internal/graphstore"
	"github.com/calkg/calkg/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the full pipeline on a document in one shot",
	Long: `Run executes every stage in order: parse, split, main logic,
extraction, connection analysis, and fusion. Stage artifacts are
written under the artifacts directory and the final graph is stored in
the SQLite graph database.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("title", "", "document title (default: derived from the file)")
	runCmd.Flags().String("doc-id", "", "document ID (default: content hash)")
	runCmd.Flags().String("db", "", "SQLite database path (default: <artifacts>/graphs.db)")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	cfg := config.Load()
	cfg.DataDir = artifactsDir(cmd)
	cfg.DBPath, _ = cmd.Flags().GetString("db")
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "graphs.db")
	}

	graphs, err := graphstore.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer graphs.Close()

	docID, _ := cmd.Flags().GetString("doc-id")
	if docID == "" {
		docID = pipeline.ContentHashHex(data)[:16]
	}
	title, _ := cmd.Flags().GetString("title")

	now := time.Now()
	job := &pipeline.Job{
		ID:        uuid.NewString(),
		DocID:     docID,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		Filename:  filepath.Base(args[0]),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(data)

	pipeline.NewWorker(client, graphs, log, cfg).Process(cmd.Context(), job)

	snap := job.Snapshot()
	if snap.Status == pipeline.StatusFailed {
		return fmt.Errorf("pipeline failed in phase %s: %v", snap.Phase, snap.Progress.Errors)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"progress": snap.Progress,
	})
}
