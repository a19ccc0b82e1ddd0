package splitter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	fallbackBoundaryRe = regexp.MustCompile(`^(#+\s+|\d+(?:\.\d+){0,3}\.?\s+)`)
	leadingHashesRe    = regexp.MustCompile(`^#+\s*`)
	leadingNumberRe    = regexp.MustCompile(`^\d+(?:\.\d+){0,3}\.?\s*`)
)

// simpleSplit cuts the document at heading-shaped lines, numbering the
// sections sequentially. Used when TOC reconciliation is impossible.
func (s *Splitter) simpleSplit(title string, lines []string) *SectionSet {
	var sections []Section
	var current *Section
	var content []string
	count := 1

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(content, "\n"))
		if current.Content != "" {
			sections = append(sections, *current)
		}
	}

	for lineNum, line := range lines {
		clean := strings.TrimSpace(line)

		if fallbackBoundaryRe.MatchString(clean) {
			flush()
			heading := leadingHashesRe.ReplaceAllString(clean, "")
			heading = leadingNumberRe.ReplaceAllString(heading, "")
			if heading == "" {
				heading = "Section " + strconv.Itoa(count)
			}
			current = &Section{
				SectionNum: strconv.Itoa(count),
				Title:      heading,
				StartLine:  lineNum + 1,
				EndLine:    lineNum + 1,
			}
			content = nil
			count++
			continue
		}

		if current != nil && clean != "" {
			content = append(content, clean)
			current.EndLine = lineNum + 1
		}
	}
	flush()

	return &SectionSet{
		Title:    title,
		Sections: sections,
		Metadata: Metadata{
			Method: "simple_split",
		},
	}
}
