package matching

// longestCommonBlock finds the longest contiguous run shared by a and b,
// preferring the earliest occurrence on ties
func longestCommonBlock(a, b string) (aStart, bStart, size int) {
	lengths := make(map[int]int)
	for i := 0; i < len(a); i++ {
		next := make(map[int]int)
		for j := 0; j < len(b); j++ {
			if a[i] != b[j] {
				continue
			}
			k := lengths[j-1] + 1
			next[j] = k
			if k > size {
				aStart, bStart, size = i-k+1, j-k+1, k
			}
		}
		lengths = next
	}
	return aStart, bStart, size
}

func matchingChars(a, b string) int {
	aStart, bStart, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:aStart], b[:bStart]) +
		matchingChars(a[aStart+size:], b[bStart+size:])
}

// SimilarityRatio measures how alike two strings are as 2M/T, where M is
// the number of characters in common (greedy longest-block alignment) and
// T is the total length of both strings. Returns a value in [0, 1].
func SimilarityRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingChars(a, b)) / float64(total)
}
