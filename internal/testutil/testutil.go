// Package testutil provides canned participant responses for tests. The
// builders emit the UPPER_CASE section format the stage templates request so
// tests exercise the same parsing path as real provider output.
package testutil

import (
	"fmt"
	"strings"
)

// Sections renders header/content pairs in order, one section per line.
func Sections(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "%s: %s\n", pairs[i], pairs[i+1])
	}
	return b.String()
}

// PreFlopResponse builds a complete opening-stage response.
func PreFlopResponse(position string, confidence float64) string {
	return Sections(
		"UNDERSTANDING", "The question asks for a concrete recommendation.",
		"CONSTRAINTS", "None identified.",
		"INITIAL_POSITION", position,
		"CONFIDENCE", fmt.Sprintf("%.2f", confidence),
	)
}

// ShowdownResponse builds a complete terminal-stage response around the given
// final position.
func ShowdownResponse(position string, confidence float64) string {
	return Sections(
		"FINAL_POSITION", position,
		"IMPLEMENTATION", "Adopt the position above without modification.",
		"CONFIDENCE", fmt.Sprintf("%.2f", confidence),
		"DISSENTING_VIEWS", "None.",
	)
}
