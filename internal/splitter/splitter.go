// Package splitter reconciles a document's table of contents against the
// headings found in its body, producing contiguous sections whose spans
// cover the body through to the last line.
package splitter

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/calkg/calkg/internal/llm"
	"github.com/calkg/calkg/internal/runner"
)

// TOCEntry is one line of the table of contents.
type TOCEntry struct {
	SectionNum string `json:"section_num"`
	Title      string `json:"title"`
	PageNum    string `json:"page_num"`
	Line       int    `json:"line_num"`
}

// Heading kinds found in the body.
const (
	KindMarkdown = "markdown"
	KindNumbered = "numbered"
	KindChapter  = "chapter"
)

// ContentHeading is a heading line found in the document body.
type ContentHeading struct {
	Line       int    `json:"line_num"`
	SectionNum string `json:"section_num"`
	Title      string `json:"title"`
	FullLine   string `json:"full_line"`
	Kind       string `json:"title_type"`
}

// Match pairs a TOC entry with a body heading.
type Match struct {
	TOCSectionNum     string  `json:"toc_section_num"`
	TOCTitle          string  `json:"toc_title"`
	ContentLine       int     `json:"content_line_num"`
	ContentSectionNum string  `json:"content_section_num"`
	ContentTitle      string  `json:"content_title"`
	Confidence        float64 `json:"confidence"`
}

// Section is a contiguous span of the document body.
type Section struct {
	SectionNum string `json:"section_num"`
	Title      string `json:"title"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Content    string `json:"content"`
}

// Metadata records how the split was produced.
type Metadata struct {
	Method        string `json:"splitter_method"`
	TOCTitles     int    `json:"toc_titles_count"`
	ContentTitles int    `json:"content_titles_count"`
	Matched       int    `json:"matched_count"`
	TOCEndLine    int    `json:"toc_end_line"`
}

// SectionSet is the splitter output.
type SectionSet struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
	Metadata Metadata  `json:"metadata"`
}

// Config tunes the splitter.
type Config struct {
	// BatchSize is the number of TOC entries per matching call.
	BatchSize int
	// MinConfidence drops matches the model was unsure about.
	MinConfidence float64
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:     30,
		MinConfidence: 0.5,
		Workers:       4,
		MaxRetries:    3,
		RetryDelay:    2 * time.Second,
	}
}

// Splitter performs TOC-guided document splitting.
type Splitter struct {
	client llm.Client
	cfg    Config
	log    *slog.Logger
}

func New(client llm.Client, cfg Config, log *slog.Logger) *Splitter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 30
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.5
	}
	return &Splitter{client: client, cfg: cfg, log: log}
}

// Split reconciles the TOC against body headings and cuts the text into
// sections. When any stage comes up empty or the matching calls fail it
// degrades to the simple heading-boundary split rather than failing; a
// split always yields a section set.
func (s *Splitter) Split(ctx context.Context, title, text string) *SectionSet {
	lines := strings.Split(text, "\n")

	toc, tocEnd := extractTOC(lines)
	if len(toc) == 0 {
		s.log.Warn("no table of contents found, using simple split")
		return s.simpleSplit(title, lines)
	}
	s.log.Info("extracted table of contents", "entries", len(toc), "toc_end_line", tocEnd)

	headings := extractHeadings(lines, tocEnd)
	if len(headings) == 0 {
		s.log.Warn("no body headings found, using simple split")
		return s.simpleSplit(title, lines)
	}
	s.log.Info("extracted body headings", "headings", len(headings))

	matches := s.matchHeadings(ctx, toc, headings)
	if len(matches) == 0 {
		s.log.Warn("matching produced no usable pairs, using simple split")
		return s.simpleSplit(title, lines)
	}
	s.log.Info("matched toc against body", "matches", len(matches))

	sections := buildSections(lines, matches)
	return &SectionSet{
		Title:    title,
		Sections: sections,
		Metadata: Metadata{
			Method:        "toc_content_matching",
			TOCTitles:     len(toc),
			ContentTitles: len(headings),
			Matched:       len(matches),
			TOCEndLine:    tocEnd,
		},
	}
}

type matchBatch struct {
	index    int
	entries  []TOCEntry
	headings []ContentHeading
}

type matchResponse struct {
	Matches []Match `json:"matches"`
}

// matchHeadings asks the model to pair TOC entries with body headings,
// in batches executed on the shared worker pool. Batches that exhaust
// their retries are skipped; their TOC entries simply go unmatched.
// When every batch fails the result is empty and the caller degrades to
// the simple split.
func (s *Splitter) matchHeadings(ctx context.Context, toc []TOCEntry, headings []ContentHeading) []Match {
	var batches []matchBatch
	for i := 0; i < len(toc); i += s.cfg.BatchSize {
		end := i + s.cfg.BatchSize
		if end > len(toc) {
			end = len(toc)
		}
		batches = append(batches, matchBatch{
			index:    i / s.cfg.BatchSize,
			entries:  toc[i:end],
			headings: headings,
		})
	}

	res := runner.Run(ctx, batches,
		func(b matchBatch) string { return batchID(b.index) },
		s.matchBatch,
		runner.Options{
			Workers:    s.cfg.Workers,
			MaxRetries: s.cfg.MaxRetries,
			RetryDelay: s.cfg.RetryDelay,
			Name:       "toc-match",
			Log:        s.log,
		})

	if len(res.Values) == 0 && len(res.Failed) > 0 {
		s.log.Error("all match batches failed", "batches", len(res.Failed))
		return nil
	}

	var matches []Match
	for _, batchMatches := range res.Values {
		for _, m := range batchMatches {
			if m.Confidence < s.cfg.MinConfidence {
				s.log.Debug("dropping low-confidence match",
					"toc_title", m.TOCTitle, "confidence", m.Confidence)
				continue
			}
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ContentLine < matches[j].ContentLine })
	return matches
}

func (s *Splitter) matchBatch(ctx context.Context, b matchBatch) ([]Match, error) {
	reply, err := s.client.Complete(ctx, llm.Request{
		System:    matchSystemPrompt,
		Prompt:    buildMatchPrompt(b.entries, b.headings),
		MaxTokens: 8000,
	})
	if err != nil {
		return nil, err
	}
	return parseMatchResponse(reply)
}

func batchID(i int) string {
	return "batch-" + strconv.Itoa(i)
}

// buildSections cuts the body into contiguous spans. Each section runs
// from its matched heading line to the line before the next match; the
// last section runs to the end of the document.
func buildSections(lines []string, matches []Match) []Section {
	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		start := m.ContentLine - 1
		if start < 0 {
			start = 0
		}
		end := len(lines)
		if i < len(matches)-1 {
			end = matches[i+1].ContentLine - 1
		}

		var content []string
		for idx := start; idx < end && idx < len(lines); idx++ {
			line := strings.TrimSpace(lines[idx])
			if line != "" {
				content = append(content, line)
			}
		}

		sections = append(sections, Section{
			SectionNum: m.TOCSectionNum,
			Title:      m.TOCTitle,
			StartLine:  start + 1,
			EndLine:    end,
			Content:    strings.Join(content, "\n"),
		})
	}
	return sections
}
