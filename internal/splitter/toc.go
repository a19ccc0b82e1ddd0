package splitter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// TOC line shapes, with and without dot leaders and page numbers.
	tocNumberedLeader = regexp.MustCompile(`^(\d+(?:\.\d+){0,3})\.?\s+(.+?)\s*\.{2,}\s*(\d+)$`)
	tocNumberedPage   = regexp.MustCompile(`^(\d+(?:\.\d+){0,3})\.?\s+(.+?)\s+(\d+)$`)
	tocNumbered       = regexp.MustCompile(`^(\d+(?:\.\d+){0,3})\.?\s+(.+)$`)
	tocChapterLeader  = regexp.MustCompile(`(?i)^Chapter\s+(\d+)[.:]?\s+(.+?)\s*\.{2,}\s*(\d+)$`)
	tocChapterPage    = regexp.MustCompile(`(?i)^Chapter\s+(\d+)[.:]?\s+(.+?)\s+(\d+)$`)
	tocChapter        = regexp.MustCompile(`(?i)^Chapter\s+(\d+)[.:]?\s+(.+)$`)

	trailingDots = regexp.MustCompile(`\.+$`)

	// TOC-end markers: a chapter heading, a numbered subsection, or a
	// markdown heading starting the body.
	chapterStartRe    = regexp.MustCompile(`(?i)^Chapter\s+\d+`)
	subsectionStartRe = regexp.MustCompile(`^\d+\.\d+`)
	markdownStartRe   = regexp.MustCompile(`^#+\s`)
)

// extractTOC scans for a table-of-contents block and parses its entries.
// It returns the entries plus the line index from which body-heading
// scanning should begin.
func extractTOC(lines []string) ([]TOCEntry, int) {
	var entries []TOCEntry
	inTOC := false
	tocEnd := 0

	for lineNum, line := range lines {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}

		if !inTOC {
			if isTOCMarker(clean) {
				inTOC = true
			}
			continue
		}

		entry, ok := parseTOCLine(clean, lineNum+1)
		if ok {
			entries = append(entries, entry)
			continue
		}

		// A few parsed entries followed by body-looking text means the
		// TOC block is over.
		if len(entries) > 3 {
			if len(clean) > 50 ||
				chapterStartRe.MatchString(clean) ||
				subsectionStartRe.MatchString(clean) ||
				markdownStartRe.MatchString(clean) {
				tocEnd = lineNum
				break
			}
		}
	}

	if tocEnd == 0 && len(entries) > 0 {
		tocEnd = entries[len(entries)-1].Line + 5
	}
	return entries, tocEnd
}

func isTOCMarker(line string) bool {
	lower := strings.ToLower(line)
	lower = strings.Trim(lower, "# ")
	if lower == "contents" || lower == "toc" {
		return true
	}
	return strings.Contains(lower, "table of contents")
}

func parseTOCLine(line string, lineNum int) (TOCEntry, bool) {
	patterns := []*regexp.Regexp{
		tocNumberedLeader, tocNumberedPage, tocNumbered,
		tocChapterLeader, tocChapterPage, tocChapter,
	}
	for _, re := range patterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := trailingDots.ReplaceAllString(strings.TrimSpace(m[2]), "")
		title = strings.TrimSpace(title)
		if len(title) < 2 {
			continue
		}
		page := ""
		if len(m) > 3 {
			page = m[3]
		}
		return TOCEntry{
			SectionNum: m[1],
			Title:      title,
			PageNum:    page,
			Line:       lineNum,
		}, true
	}
	return TOCEntry{}, false
}

var (
	markdownHeadingRe = regexp.MustCompile(`^(#+)\s+(.+)$`)
	headingSectionRe  = regexp.MustCompile(`^(\d+(?:\.\d+){0,3})\.?\s+(.+)$`)

	numberedHeadingRes = []*regexp.Regexp{
		regexp.MustCompile(`^(\d+)\.\s+(.+)$`),
		regexp.MustCompile(`^(\d+\.\d+)\s+(.+)$`),
		regexp.MustCompile(`^(\d+\.\d+\.\d+)\s+(.+)$`),
		regexp.MustCompile(`^(\d+\.\d+\.\d+\.\d+)\s+(.+)$`),
	}

	chapterHeadingRe     = regexp.MustCompile(`(?i)^Chapter\s+(\d+)[.:]?\s+(.+)$`)
	chapterBareHeadingRe = regexp.MustCompile(`(?i)^Chapter\s+(\d+)\s*$`)
)

// extractHeadings scans the body from startLine for heading-shaped
// lines in any of the three recognized forms.
func extractHeadings(lines []string, startLine int) []ContentHeading {
	var headings []ContentHeading
	if startLine < 0 {
		startLine = 0
	}

	for lineNum := startLine; lineNum < len(lines); lineNum++ {
		clean := strings.TrimSpace(lines[lineNum])
		if len(clean) < 3 {
			continue
		}

		if m := markdownHeadingRe.FindStringSubmatch(clean); m != nil {
			depth := len(m[1])
			title := strings.TrimSpace(m[2])
			sectionNum := "h" + strconv.Itoa(depth)
			if sm := headingSectionRe.FindStringSubmatch(title); sm != nil {
				sectionNum = sm[1]
				title = strings.TrimSpace(sm[2])
			}
			headings = append(headings, ContentHeading{
				Line:       lineNum + 1,
				SectionNum: sectionNum,
				Title:      title,
				FullLine:   clean,
				Kind:       KindMarkdown,
			})
			continue
		}

		if h, ok := parseNumberedHeading(clean, lineNum+1); ok {
			headings = append(headings, h)
			continue
		}

		if h, ok := parseChapterHeading(clean, lineNum+1); ok {
			headings = append(headings, h)
		}
	}
	return headings
}

func parseNumberedHeading(line string, lineNum int) (ContentHeading, bool) {
	for _, re := range numberedHeadingRes {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return ContentHeading{
			Line:       lineNum,
			SectionNum: m[1],
			Title:      strings.TrimSpace(m[2]),
			FullLine:   line,
			Kind:       KindNumbered,
		}, true
	}
	return ContentHeading{}, false
}

func parseChapterHeading(line string, lineNum int) (ContentHeading, bool) {
	if m := chapterHeadingRe.FindStringSubmatch(line); m != nil {
		return ContentHeading{
			Line:       lineNum,
			SectionNum: m[1],
			Title:      strings.TrimSpace(m[2]),
			FullLine:   line,
			Kind:       KindChapter,
		}, true
	}
	if m := chapterBareHeadingRe.FindStringSubmatch(line); m != nil {
		return ContentHeading{
			Line:       lineNum,
			SectionNum: m[1],
			Title:      "Chapter " + m[1],
			FullLine:   line,
			Kind:       KindChapter,
		}, true
	}
	return ContentHeading{}, false
}
