package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/calkg/calkg/internal/artifact"
	"github.com/calkg/calkg/internal/config"
	"github.com/calkg/calkg/internal/connect"
	"github.com/calkg/calkg/internal/extract"
	"github.com/calkg/calkg/internal/graph"
	"github.com/calkg/calkg/internal/graphstore"
	"github.com/calkg/calkg/internal/llm"
	"github.com/calkg/calkg/internal/mainlogic"
	"github.com/calkg/calkg/internal/parser"
	"github.com/calkg/calkg/internal/runner"
	"github.com/calkg/calkg/internal/splitter"
)

// Worker runs the full graph-construction pipeline for a single job.
type Worker struct {
	splitter  *splitter.Splitter
	mainGen   *mainlogic.Generator
	extractor *extract.Extractor
	analyzer  *connect.Analyzer
	fuser     *graph.Fuser
	graphs    *graphstore.Store
	log       *slog.Logger
	cfg       config.Config
}

func NewWorker(client llm.Client, graphs *graphstore.Store, log *slog.Logger, cfg config.Config) *Worker {
	splitCfg := splitter.DefaultConfig()
	splitCfg.BatchSize = cfg.MatchBatchSize
	splitCfg.Workers = cfg.MaxConcurrentExtract
	splitCfg.MaxRetries = cfg.MaxRetries
	splitCfg.RetryDelay = cfg.RetryDelay

	connCfg := connect.DefaultConfig()
	connCfg.MaxPairs = cfg.MaxPairSamples

	return &Worker{
		splitter: splitter.New(client, splitCfg, log),
		mainGen:  mainlogic.New(client, log),
		extractor: extract.New(client, extract.NewRuleExtractor(nil), extract.Config{
			MaxExcerpt: cfg.MaxExcerptChars,
		}, log),
		analyzer: connect.NewAnalyzer(client, connect.NewRandomSampler(cfg.SamplerSeed), connCfg, log),
		fuser:  graph.NewFuser(graph.DefaultFuseConfig(), log),
		graphs: graphs,
		log:    log,
		cfg:    cfg,
	}
}

// Process runs the full pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	hadErrors := false

	artifacts, err := artifact.NewStore(filepath.Join(w.cfg.DataDir, job.DocID))
	if err != nil {
		log.Error("artifact store init failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "init")
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = w.cfg.PDFFallbackPdftotext
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	title := doc.Title
	if job.Title != "" {
		title = job.Title
	}
	job.ContentHash = ContentHashHex([]byte(doc.Text))

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	set := w.splitter.Split(ctx, title, doc.Text)
	if len(set.Sections) == 0 {
		log.Warn("no sections produced")
		job.AddError("no extractable sections")
		job.SetStatus(StatusFailed, "segmenting")
		return
	}
	if err := artifacts.SaveSections(set); err != nil {
		log.Warn("section artifact write failed", "error", err)
	}

	sections := filterSections(set.Sections, w.cfg.MinSectionChars)
	job.SetSections(len(sections))
	log.Info("document segmented",
		"sections", len(set.Sections), "usable", len(sections), "method", set.Metadata.Method)
	if len(sections) == 0 {
		job.AddError("all sections below minimum length")
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	// Phase 3: Main-logic graph. Failure here degrades the output but
	// does not abort the run.
	job.SetStatus(StatusAnalyzing, "main_logic")
	usable := *set
	usable.Sections = sections
	main, err := w.mainGen.Generate(ctx, &usable)
	if err != nil {
		log.Error("main-logic generation failed, continuing without it", "error", err)
		job.AddError(fmt.Sprintf("main_logic: %s", err))
		hadErrors = true
		main = graph.MainGraph{}
	} else if err := artifacts.SaveMainGraph(main); err != nil {
		log.Warn("main graph artifact write failed", "error", err)
	}

	// Phase 4: Per-section extraction.
	job.SetStatus(StatusExtracting, "extracting")
	extractRes := runner.Run(ctx, sections,
		func(s splitter.Section) string { return s.SectionNum },
		w.extractor.Extract,
		runner.Options{
			Workers:    w.cfg.MaxConcurrentExtract,
			MaxRetries: w.cfg.MaxRetries,
			RetryDelay: w.cfg.RetryDelay,
			Name:       "extract",
			Log:        log,
		})

	fragments := make([]graph.Fragment, 0, len(extractRes.Values))
	for _, frag := range extractRes.Values {
		fragments = append(fragments, frag)
	}
	sort.Slice(fragments, func(i, j int) bool { return fragments[i].SectionNum < fragments[j].SectionNum })

	failedSections := make([]string, 0, len(extractRes.Failed))
	for id, ferr := range extractRes.Failed {
		failedSections = append(failedSections, id)
		job.AddError(fmt.Sprintf("section %s: %s", id, ferr))
		hadErrors = true
	}
	sort.Strings(failedSections)
	job.SetExtraction(len(fragments), failedSections)
	if err := artifacts.SaveFragments(fragments, failedSections); err != nil {
		log.Warn("fragment artifact write failed", "error", err)
	}

	if len(fragments) == 0 {
		log.Error("no fragments extracted")
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	// Phase 5: Cross-section connections.
	job.SetStatus(StatusConnecting, "connecting")
	pairs := w.analyzer.SelectPairs(fragments)
	connectRes := runner.Run(ctx, pairs,
		connect.Pair.ID,
		w.analyzer.AnalyzePair,
		runner.Options{
			Workers:    w.cfg.MaxConcurrentExtract,
			MaxRetries: w.cfg.MaxRetries,
			RetryDelay: w.cfg.RetryDelay,
			Name:       "connect",
			Log:        log,
		})

	candidates := make([]*graph.Connection, 0, len(connectRes.Values))
	for _, c := range connectRes.Values {
		candidates = append(candidates, c)
	}
	conns := w.analyzer.Validate(candidates)

	failedPairs := make([]string, 0, len(connectRes.Failed))
	for id := range connectRes.Failed {
		failedPairs = append(failedPairs, id)
		hadErrors = true
	}
	sort.Strings(failedPairs)
	job.SetConnections(len(pairs), len(conns), len(failedPairs))
	if err := artifacts.SaveConnections(conns, failedPairs); err != nil {
		log.Warn("connection artifact write failed", "error", err)
	}
	log.Info("connection analysis complete",
		"pairs", len(pairs), "connections", len(conns), "failed", len(failedPairs))

	// Phase 6: Fusion.
	job.SetStatus(StatusFusing, "fusing")
	unified := w.fuser.Fuse(title, main, fragments, conns)
	job.SetGraphSize(unified.Statistics.TotalNodes, unified.Statistics.TotalEdges)

	// Phase 7: Store.
	job.SetStatus(StatusStoring, "storing")
	if err := artifacts.SaveUnifiedGraph(unified); err != nil {
		log.Warn("graph artifact write failed", "error", err)
	}
	if err := w.graphs.Put(ctx, job.DocID, unified); err != nil {
		log.Error("graph store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("pipeline complete",
		"status", job.Snapshot().Status,
		"nodes", unified.Statistics.TotalNodes,
		"edges", unified.Statistics.TotalEdges)
}

// filterSections drops sections too short to analyze.
func filterSections(sections []splitter.Section, minChars int) []splitter.Section {
	var out []splitter.Section
	for _, s := range sections {
		if len(s.Content) >= minChars {
			out = append(out, s)
		}
	}
	return out
}
