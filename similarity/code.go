package similarity

import (
	"regexp"
	"strings"
)

// Structural comparison of fenced code blocks. Text similarity alone
// penalizes equivalent implementations with different prose around them, so
// code-bearing responses blend in a shape comparison: overall structure,
// function signatures and shared identifiers.

var (
	codeBlockRe = regexp.MustCompile("(?s)```[a-zA-Z]*\n(.*?)```")
	lineComment = regexp.MustCompile(`(//|#).*$`)
	signatureRe = regexp.MustCompile(`(?m)^\s*(func\s+\w+\s*\([^)]*\)|def\s+\w+\s*\([^)]*\)|function\s+\w+\s*\([^)]*\))`)
	identRe     = regexp.MustCompile(`\b[a-zA-Z_]\w*\b`)
)

// codeBlocks extracts normalized code blocks per text. present is true when
// at least one text carries a recognizable block.
func codeBlocks(texts []string) (blocks [][]string, present bool) {
	blocks = make([][]string, len(texts))
	for i, t := range texts {
		for _, m := range codeBlockRe.FindAllStringSubmatch(t, -1) {
			blocks[i] = append(blocks[i], normalizeCode(m[1]))
		}
		if len(blocks[i]) > 0 {
			present = true
		}
	}
	return blocks, present
}

// normalizeCode strips comments and blank lines and trims indentation so
// comparison sees only the structural content.
func normalizeCode(code string) string {
	var out []string
	for _, line := range strings.Split(code, "\n") {
		line = lineComment.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// codeSimilarity averages the structural similarity over all distinct pairs
// of code-bearing texts. Texts without code are skipped; a lone code-bearing
// text scores 0.0 because there is nothing to agree with.
func codeSimilarity(blocks [][]string) float64 {
	var withCode [][]string
	for _, b := range blocks {
		if len(b) > 0 {
			withCode = append(withCode, b)
		}
	}
	if len(withCode) < 2 {
		return 0.0
	}

	var sum float64
	var pairs int
	for i := 0; i < len(withCode); i++ {
		for j := i + 1; j < len(withCode); j++ {
			n := len(withCode[i])
			if len(withCode[j]) < n {
				n = len(withCode[j])
			}
			for k := 0; k < n; k++ {
				sum += compareCode(withCode[i][k], withCode[j][k])
				pairs++
			}
		}
	}
	if pairs == 0 {
		return 0.0
	}
	return sum / float64(pairs)
}

// compareCode weighs overall structure heaviest, then signature shape, then
// shared identifiers.
func compareCode(a, b string) float64 {
	structure := sequenceRatio(a, b)
	sigs := sequenceRatio(signatures(a), signatures(b))
	idents := identifierJaccard(a, b)
	return structure*0.5 + sigs*0.3 + idents*0.2
}

func signatures(code string) string {
	return strings.Join(signatureRe.FindAllString(code, -1), " ")
}

func identifierJaccard(a, b string) float64 {
	setA := identifierSet(a)
	setB := identifierSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0.0
	}
	var intersection, union int
	for id := range setA {
		if setB[id] {
			intersection++
		}
	}
	union = len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func identifierSet(code string) map[string]bool {
	set := make(map[string]bool)
	for _, id := range identRe.FindAllString(code, -1) {
		set[id] = true
	}
	return set
}
