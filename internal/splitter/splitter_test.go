package splitter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calkg/calkg/internal/llm"
)

type fakeClient struct {
	calls atomic.Int32
	fn    func(req llm.Request) (string, error)
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls.Add(1)
	return f.fn(req)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelay = time.Millisecond
	return cfg
}

const matchedDoc = `Table of Contents
1. Introduction .......... 2
2. Methods .......... 10
3. Results .......... 20
4. Discussion .......... 30
This opening paragraph introduces the document and is clearly longer than fifty characters.
# 1. Introduction
Intro body line one.
More intro body.
# 2. Methods
Methods body.`

func TestSplit_TOCMatching(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (string, error) {
		return `{"matches": [
			{"toc_section_num": "1", "toc_title": "Introduction", "content_line_num": 7,
			 "content_section_num": "1", "content_title": "Introduction", "confidence": 0.95},
			{"toc_section_num": "2", "toc_title": "Methods", "content_line_num": 10,
			 "content_section_num": "2", "content_title": "Methods", "confidence": 0.9}
		]}`, nil
	}}

	set := New(client, testConfig(), testLogger()).Split(context.Background(), "Doc", matchedDoc)
	if set.Metadata.Method != "toc_content_matching" {
		t.Errorf("expected toc_content_matching, got %q", set.Metadata.Method)
	}
	if set.Metadata.TOCTitles != 4 {
		t.Errorf("expected 4 toc titles, got %d", set.Metadata.TOCTitles)
	}
	if set.Metadata.Matched != 2 {
		t.Errorf("expected 2 matches, got %d", set.Metadata.Matched)
	}
	if client.calls.Load() != 1 {
		t.Errorf("expected 1 matching call for a single batch, got %d", client.calls.Load())
	}

	if len(set.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(set.Sections))
	}
	first, second := set.Sections[0], set.Sections[1]
	if first.SectionNum != "1" || first.Title != "Introduction" {
		t.Errorf("unexpected first section: %+v", first)
	}
	if first.StartLine != 7 || first.EndLine != 9 {
		t.Errorf("expected first section lines 7-9, got %d-%d", first.StartLine, first.EndLine)
	}
	if !strings.Contains(first.Content, "Intro body line one.") {
		t.Errorf("expected intro body in content, got %q", first.Content)
	}
	// The final section runs to the end of the document.
	if second.EndLine != len(strings.Split(matchedDoc, "\n")) {
		t.Errorf("expected last section to reach end of document, got end %d", second.EndLine)
	}
	if second.StartLine != first.EndLine+1 {
		t.Errorf("expected contiguous sections, got %d after %d", second.StartLine, first.EndLine)
	}
}

func TestSplit_LowConfidenceMatchesDropped(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (string, error) {
		return `{"matches": [
			{"toc_section_num": "1", "toc_title": "Introduction", "content_line_num": 7, "confidence": 0.95},
			{"toc_section_num": "2", "toc_title": "Methods", "content_line_num": 10, "confidence": 0.3}
		]}`, nil
	}}

	set := New(client, testConfig(), testLogger()).Split(context.Background(), "Doc", matchedDoc)
	if len(set.Sections) != 1 {
		t.Fatalf("expected 1 section after confidence filter, got %d", len(set.Sections))
	}
	if set.Sections[0].SectionNum != "1" {
		t.Errorf("expected the confident match kept, got %+v", set.Sections[0])
	}
}

func TestSplit_NoTOCFallsBackToSimpleSplit(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (string, error) {
		t.Fatal("client must not be called without a TOC")
		return "", nil
	}}

	text := "# First Part\nbody one\n# Second Part\nbody two"
	set := New(client, testConfig(), testLogger()).Split(context.Background(), "Doc", text)
	if set.Metadata.Method != "simple_split" {
		t.Errorf("expected simple_split, got %q", set.Metadata.Method)
	}
	if len(set.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(set.Sections))
	}
}

func TestSplit_AllBatchesFailedFallsBackToSimpleSplit(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (string, error) {
		return "", errors.New("model unavailable")
	}}

	set := New(client, testConfig(), testLogger()).Split(context.Background(), "Doc", matchedDoc)
	if set.Metadata.Method != "simple_split" {
		t.Errorf("expected simple_split when every match batch fails, got %q", set.Metadata.Method)
	}
	if len(set.Sections) == 0 {
		t.Fatal("expected sections from the fallback split")
	}
	if client.calls.Load() == 0 {
		t.Error("expected matching to be attempted before falling back")
	}
}

func TestSplit_UnparsableMatchesFallBackToSimpleSplit(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (string, error) {
		return `{"matches": []}`, nil
	}}

	set := New(client, testConfig(), testLogger()).Split(context.Background(), "Doc", matchedDoc)
	if set.Metadata.Method != "simple_split" {
		t.Errorf("expected simple_split when nothing matches, got %q", set.Metadata.Method)
	}
}

func TestSplit_BatchesLargeTOC(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Table of Contents\n")
	for i := 1; i <= 45; i++ {
		n := strconv.Itoa(i)
		sb.WriteString(n + ". Topic Number " + n + " ..... " + n + "\n")
	}
	sb.WriteString("This closing paragraph is deliberately much longer than fifty characters to end it.\n")
	sb.WriteString("# 1. Topic Number 1\nbody\n")

	client := &fakeClient{fn: func(req llm.Request) (string, error) {
		return `{"matches": [{"toc_section_num": "1", "toc_title": "Topic", "content_line_num": 48, "confidence": 0.9}]}`, nil
	}}

	cfg := testConfig()
	cfg.BatchSize = 30
	set := New(client, cfg, testLogger()).Split(context.Background(), "Doc", sb.String())
	if client.calls.Load() != 2 {
		t.Errorf("expected 2 batches for 45 entries at batch size 30, got %d", client.calls.Load())
	}
	if len(set.Sections) == 0 {
		t.Error("expected sections from matched batches")
	}
}
