// Package similarity scores how close a round's responses are to each other.
//
// The primary method vectorizes each response by TF-IDF weight (stop-words
// excluded, vocabulary capped) and averages the pairwise cosine similarity
// over all distinct pairs. When vectorization degenerates the scorer falls
// back to direct character-sequence comparison (two texts) or the
// shared-to-total distinct word ratio (more than two).
//
// Two optional signals blend into the running score, each at equal weight and
// always in the same order: structural code similarity first, evidence
// overlap second. The order is preserved for reproducibility of persisted
// scores; it is not claimed to be semantically optimal.
package similarity

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// maxVocabulary caps the TF-IDF vocabulary size.
const maxVocabulary = 1000

// Scorer computes response-set similarity scores in [0,1].
type Scorer struct {
	stopwords map[string]bool
}

// NewScorer constructs a scorer with the default English stop-word list.
func NewScorer() *Scorer {
	return &Scorer{stopwords: defaultStopwords()}
}

// Score returns the similarity of the given response texts. Fewer than two
// texts score 0.0.
func (s *Scorer) Score(texts []string) float64 {
	if len(texts) < 2 {
		return 0.0
	}

	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = normalizeText(t)
	}

	score, ok := s.tfidfScore(normalized)
	if !ok {
		score = s.fallbackScore(normalized)
	}

	// Blend order is fixed: code first, then evidence.
	if blocks, present := codeBlocks(texts); present {
		score = (score + codeSimilarity(blocks)) / 2
	}
	if hasEvidence(texts) {
		score = (score + evidenceSimilarity(texts)) / 2
	}

	return clamp01(score)
}

var (
	codeFenceRe  = regexp.MustCompile("(?s)```[a-zA-Z]*\n.*?```")
	whitespaceRe = regexp.MustCompile(`\s+`)
	tokenRe      = regexp.MustCompile(`[a-z0-9_']+`)
)

// normalizeText strips code blocks (compared separately) and collapses the
// remaining text to lower-case single-spaced form.
func normalizeText(text string) string {
	text = codeFenceRe.ReplaceAllString(text, "")
	text = strings.ToLower(strings.TrimSpace(text))
	return whitespaceRe.ReplaceAllString(text, " ")
}

func (s *Scorer) tokenize(text string) []string {
	var tokens []string
	for _, tok := range tokenRe.FindAllString(text, -1) {
		if len(tok) < 2 || s.stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// tfidfScore computes the mean pairwise cosine similarity over TF-IDF
// vectors. ok is false when the vocabulary is empty or any document vector is
// degenerate, in which case the caller should use the fallback.
func (s *Scorer) tfidfScore(texts []string) (float64, bool) {
	docs := make([][]string, len(texts))
	df := make(map[string]int)
	for i, t := range texts {
		docs[i] = s.tokenize(t)
		for _, term := range uniqueTerms(docs[i]) {
			df[term]++
		}
	}

	vocab := buildVocabulary(df)
	if len(vocab) == 0 {
		return 0, false
	}

	n := float64(len(texts))
	idf := make(map[string]float64, len(vocab))
	for term, count := range df {
		if _, ok := vocab[term]; ok {
			idf[term] = math.Log((1+n)/(1+float64(count))) + 1
		}
	}

	vectors := make([]map[string]float64, len(docs))
	for i, doc := range docs {
		vec := make(map[string]float64)
		for _, term := range doc {
			if _, ok := vocab[term]; ok {
				vec[term] += idf[term]
			}
		}
		if len(vec) == 0 {
			return 0, false
		}
		vectors[i] = vec
	}

	var sum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += cosine(vectors[i], vectors[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0, false
	}
	return sum / float64(pairs), true
}

// buildVocabulary keeps the highest-document-frequency terms up to the cap,
// breaking ties alphabetically for deterministic scores.
func buildVocabulary(df map[string]int) map[string]struct{} {
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxVocabulary {
		terms = terms[:maxVocabulary]
	}
	vocab := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		vocab[term] = struct{}{}
	}
	return vocab
}

func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for term, w := range a {
		na += w * w
		if wb, ok := b[term]; ok {
			dot += w * wb
		}
	}
	for _, w := range b {
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fallbackScore handles degenerate vectorization: direct sequence comparison
// for exactly two texts, shared-distinct-word ratio otherwise.
func (s *Scorer) fallbackScore(texts []string) float64 {
	if len(texts) == 2 {
		return sequenceRatio(texts[0], texts[1])
	}

	shared := make(map[string]int)
	total := make(map[string]struct{})
	for _, t := range texts {
		for _, w := range uniqueTerms(strings.Fields(t)) {
			shared[w]++
			total[w] = struct{}{}
		}
	}
	if len(total) == 0 {
		return 0.0
	}
	var common int
	for _, count := range shared {
		if count == len(texts) {
			common++
		}
	}
	return float64(common) / float64(len(total))
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
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
