package similarity

// sequenceRatio measures the similarity of two strings as
// 2*M / (len(a)+len(b)), where M is the total length of matching blocks found
// by recursively locating the longest common substring. Identical strings
// score 1.0, disjoint strings 0.0.
func sequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	m := matchingLength([]rune(a), []rune(b))
	return 2 * float64(m) / float64(len([]rune(a))+len([]rune(b)))
}

func matchingLength(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingLength(a[:ai], b[:bi])
	total += matchingLength(a[ai+size:], b[bi+size:])
	return total
}

// longestMatch finds the longest common substring using the classic rolling
// row technique, O(len(a)*len(b)) time and O(len(b)) space.
func longestMatch(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, size
}
