// Package dedup detects duplicate transactions using fuzzy text matching.
// Two transactions are considered duplicates when their type, amount, and
// date match exactly and each descriptive field relevant to the type is at
// least 90% similar to its counterpart.
package dedup

import "strings"

// SimilarityThreshold is the default minimum ratio for two descriptive
// strings to be considered the same.
const SimilarityThreshold = 0.9

// Ratio returns a similarity measure between 0 and 1 for two strings,
// computed as 2*M/T where M is the total length of matching blocks and
// T is the combined length of both strings. Identical strings score 1.0,
// strings with nothing in common score 0.0.
func Ratio(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)

	if a == b {
		return 1.0
	}
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matched := matchingBlocks([]byte(a), []byte(b))
	return 2.0 * float64(matched) / float64(total)
}

// matchingBlocks returns the total length of matching blocks between a and b.
// It finds the longest common substring, then recurses on the pieces to the
// left and right of it.
func matchingBlocks(a, b []byte) int {
	size, ai, bi := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingBlocks(a[:ai], b[:bi])
	total += matchingBlocks(a[ai+size:], b[bi+size:])
	return total
}

// longestMatch finds the longest common substring of a and b, returning its
// length and start offsets.
func longestMatch(a, b []byte) (size, ai, bi int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// lengths[j] holds the length of the match ending at a[i-1], b[j-1]
	// from the previous row of the dynamic programming table.
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		// Walk right to left so we can reuse the row in place.
		for j := len(b); j >= 1; j-- {
			if a[i-1] == b[j-1] {
				lengths[j] = lengths[j-1] + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
		}
	}
	return size, ai, bi
}

// normalize lowercases and trims a string for comparison.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
