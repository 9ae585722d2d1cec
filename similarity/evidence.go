package similarity

import "strings"

// Evidence overlap. Stages past the opening ask for an EVIDENCE section with
// comma separated citations; agreement on sources is a convergence signal
// independent of phrasing.

// hasEvidence reports whether any response carries an EVIDENCE section.
func hasEvidence(texts []string) bool {
	for _, t := range texts {
		if strings.Contains(t, "EVIDENCE:") {
			return true
		}
	}
	return false
}

// evidenceSimilarity averages the Jaccard overlap of evidence sets over all
// distinct pairs. A response without evidence shares nothing, so any pair
// involving one scores 0.0.
func evidenceSimilarity(texts []string) float64 {
	sets := make([]map[string]bool, len(texts))
	for i, t := range texts {
		sets[i] = evidenceSet(t)
	}

	var sum float64
	var pairs int
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			sum += jaccard(sets[i], sets[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0.0
	}
	return sum / float64(pairs)
}

func evidenceSet(text string) map[string]bool {
	set := make(map[string]bool)
	idx := strings.Index(text, "EVIDENCE:")
	if idx < 0 {
		return set
	}
	section := text[idx+len("EVIDENCE:"):]
	if nl := strings.Index(section, "\n"); nl >= 0 {
		section = section[:nl]
	}
	for _, item := range strings.Split(section, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			set[item] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	var intersection int
	for item := range a {
		if b[item] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
