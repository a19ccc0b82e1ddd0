package parser

import (
	"fmt"
	"testing"
)

func TestForFile_KnownExtensions(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"notes.txt", "*parser.TextParser"},
		{"doc.md", "*parser.MarkdownParser"},
		{"doc.markdown", "*parser.MarkdownParser"},
		{"page.html", "*parser.HTMLParser"},
		{"page.htm", "*parser.HTMLParser"},
		{"book.pdf", "*parser.PDFParser"},
		{"report.docx", "*parser.DOCXParser"},
		{"BOOK.PDF", "*parser.PDFParser"},
	}
	for _, tc := range cases {
		p, err := ForFile(tc.filename)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.filename, err)
			continue
		}
		if got := fmt.Sprintf("%T", p); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.filename, tc.want, got)
		}
	}
}

func TestForFile_UnknownExtension(t *testing.T) {
	if _, err := ForFile("data.csv"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

// Every extension ForFile accepts must pass the upload gate, and vice
// versa, so the API never rejects a file the parsers can handle.
func TestIsSupportedExtension_AgreesWithForFile(t *testing.T) {
	for ext := range SupportedExtensions {
		if _, err := ForFile("file" + ext); err != nil {
			t.Errorf("%s: supported but ForFile rejects it: %v", ext, err)
		}
		if !IsSupportedExtension("file" + ext) {
			t.Errorf("%s: expected supported", ext)
		}
	}
	if !IsSupportedExtension("readme.markdown") {
		t.Error("expected .markdown accepted by the upload gate")
	}
	if IsSupportedExtension("data.csv") {
		t.Error("expected .csv rejected")
	}
}
