// Package parse normalizes free-text participant output into labeled
// sections and a numeric confidence value.
//
// Responses follow the UPPER_CASE section convention requested by the stage
// templates (for example "FINAL_POSITION: ..."). Parsing is deliberately
// tolerant: malformed responses are degraded, never rejected, so they still
// take part in similarity comparison while staying out of the confidence
// aggregate.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Parsed is the normalized form of one raw response. Confidence is nil when
// no usable value was found; such a response is excluded from the confidence
// average rather than treated as zero.
type Parsed struct {
	Sections   map[string]string
	Confidence *float64
	// Complete reports whether every required section was present.
	Complete bool
}

// Section returns the named section's content, or "" when absent.
func (p Parsed) Section(name string) string { return p.Sections[name] }

// FinalPosition isolates the terminal-stage answer: the FINAL_POSITION
// section when present, otherwise IMPLEMENTATION, otherwise "".
func (p Parsed) FinalPosition() string {
	if s := p.Sections["FINAL_POSITION"]; s != "" {
		return s
	}
	return p.Sections["IMPLEMENTATION"]
}

var (
	headerRe     = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)\s*:\s*(.*)$`)
	confidenceRe = regexp.MustCompile(`(?i)CONFIDENCE\s*:?\s*(\d*\.?\d+)\s*(%?)`)
	numberRe     = regexp.MustCompile(`(\d*\.?\d+)\s*(%?)`)
)

// Parse splits raw text into labeled sections and extracts the confidence
// value. requiredSections drives only the Complete flag; missing sections do
// not fail the parse.
func Parse(raw string, requiredSections []string) Parsed {
	sections := splitSections(raw)

	p := Parsed{Sections: sections, Complete: true}
	for _, name := range requiredSections {
		if _, ok := sections[name]; !ok {
			p.Complete = false
			break
		}
	}

	if c, ok := extractConfidence(sections["CONFIDENCE"], raw); ok {
		p.Confidence = &c
	} else {
		// Unparseable confidence degrades the response for aggregation.
		p.Complete = false
	}
	return p
}

// splitSections walks the text line by line, opening a new section at each
// UPPER_CASE header and accumulating continuation lines into the current one.
func splitSections(raw string) map[string]string {
	sections := make(map[string]string)
	var current string
	var lines []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(lines, "\n"))
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := headerRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = m[1]
			lines = lines[:0]
			if m[2] != "" {
				lines = append(lines, m[2])
			}
			continue
		}
		if current != "" && trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	flush()
	return sections
}

// extractConfidence looks for a numeric value first inside the CONFIDENCE
// section, then anywhere a CONFIDENCE label appears in the raw text. Values
// above 1 are read as percentages; the result is clamped to [0,1].
func extractConfidence(section, raw string) (float64, bool) {
	if section != "" {
		if m := numberRe.FindStringSubmatch(section); m != nil {
			return normalizeConfidence(m[1], m[2] == "%")
		}
	}
	if m := confidenceRe.FindStringSubmatch(raw); m != nil {
		return normalizeConfidence(m[1], m[2] == "%")
	}
	return 0, false
}

func normalizeConfidence(digits string, percent bool) (float64, bool) {
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	if percent || v > 1 {
		v /= 100
	}
	return clamp01(v), true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
