package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calkg/calkg/internal/artifact"
	"github.com/calkg/calkg/internal/parser"
	"github.com/calkg/calkg/internal/splitter"
)

var splitCmd = &cobra.Command{
	Use:   "split [file]",
	Short: "Split a document into sections using its table of contents",
	Long: `Split parses a document, extracts its table of contents and body
headings, reconciles them with the language model, and saves the
resulting sections as JSON artifacts. Documents without a usable TOC
fall back to plain heading-based splitting.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().String("title", "", "document title (default: derived from the file)")
	splitCmd.Flags().Int("batch-size", 30, "TOC entries per matching call")
	splitCmd.Flags().Float64("min-confidence", 0.5, "minimum match confidence to keep")

	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	doc, err := parseDocument(args[0])
	if err != nil {
		return err
	}
	if title, _ := cmd.Flags().GetString("title"); title != "" {
		doc.Title = title
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	cfg := splitter.DefaultConfig()
	cfg.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	cfg.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")

	set := splitter.New(client, cfg, log).Split(cmd.Context(), doc.Title, doc.Text)

	store, err := artifact.NewStore(artifactsDir(cmd))
	if err != nil {
		return err
	}
	if err := store.SaveSections(set); err != nil {
		return err
	}

	fmt.Printf("Split %q into %d sections (method: %s)\n", set.Title, len(set.Sections), set.Metadata.Method)
	return nil
}

// parseDocument reads and parses a document file into title and text.
func parseDocument(path string) (*parser.Document, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = true
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f, path)
}
