package graph

import "strings"

// Jaccard computes intersection-over-union of two keyword lists.
// Keywords are compared case-insensitively after trimming. Returns 0
// when either list is empty.
func Jaccard(a, b []string) float64 {
	setA := keywordSet(a)
	setB := keywordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for k := range setA {
		if setB[k] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Similar reports whether two nodes clear the keyword-overlap threshold.
func Similar(a, b Node, threshold float64) bool {
	return Jaccard(a.Keywords, b.Keywords) >= threshold
}

func keywordSet(keywords []string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			set[k] = true
		}
	}
	return set
}
