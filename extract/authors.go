package extract

import (
	"strings"
)

// ParseAuthors splits a byline into individual author names on ", " or
// " and ". Empty input yields an empty slice.
func ParseAuthors(authorText string) []string {
	authorText = strings.TrimSpace(authorText)
	if authorText == "" {
		return []string{}
	}

	sep := ""
	switch {
	case strings.Contains(authorText, ", "):
		sep = ", "
	case strings.Contains(authorText, " and "):
		sep = " and "
	default:
		return []string{authorText}
	}

	authors := []string{}
	for part := range strings.SplitSeq(authorText, sep) {
		part = strings.TrimSpace(part)
		if part != "" && !containsFold(authors, part) {
			authors = append(authors, part)
		}
	}
	return authors
}

// containsFold checks if a string slice contains s, ignoring case
func containsFold(slice []string, s string) bool {
	for _, v := range slice {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
