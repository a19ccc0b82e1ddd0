package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingNormalization(t *testing.T) {
	input := `# Title

Intro text.

## 1.1 Section A

Section A content.

### 1.1.1 Subsection A1

Subsection A1 content.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Title" {
		t.Errorf("expected title from h1, got %q", doc.Title)
	}

	lines := strings.Split(doc.Text, "\n")
	var headings []string
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			headings = append(headings, line)
		}
	}
	want := []string{"# Title", "## 1.1 Section A", "### 1.1.1 Subsection A1"}
	if len(headings) != len(want) {
		t.Fatalf("expected %d headings, got %d: %v", len(want), len(headings), headings)
	}
	for i, w := range want {
		if headings[i] != w {
			t.Errorf("heading[%d]: expected %q, got %q", i, w, headings[i])
		}
	}

	if !strings.Contains(doc.Text, "Section A content.") {
		t.Errorf("expected body text preserved, got %q", doc.Text)
	}
}

func TestMarkdownParser_SetextHeadings(t *testing.T) {
	input := "Title\n=====\n\nBody text.\n\nSection\n-------\n\nMore text.\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "setext.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(doc.Text, "# Title") {
		t.Errorf("expected setext h1 normalized to #, got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "## Section") {
		t.Errorf("expected setext h2 normalized to ##, got %q", doc.Text)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "plain" {
		t.Errorf("expected filename title, got %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Just some plain text.") {
		t.Errorf("expected text to contain first paragraph, got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "Another paragraph here.") {
		t.Errorf("expected text to contain second paragraph, got %q", doc.Text)
	}
}

func TestMarkdownParser_CodeBlocksKept(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n```\nGET /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(doc.Text, "GET /api/users") {
		t.Errorf("expected code block content in text, got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", doc.Text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}
