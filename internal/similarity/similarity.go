package similarity

import "strings"

// Function represents a similarity function interface
type Function interface {
	// Compare returns a similarity score between 0.0 and 1.0,
	// where 0.0 means completely different and 1.0 means identical
	Compare(a, b string) float64
	// Name returns the name of the similarity function
	Name() string
}

// ExactMatch checks if two strings are exactly equal
type ExactMatch struct{}

func (f ExactMatch) Compare(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return 0.0
}

func (f ExactMatch) Name() string {
	return "ExactMatch"
}

// CaseInsensitiveMatch checks if two strings are equal, ignoring case
type CaseInsensitiveMatch struct{}

func (f CaseInsensitiveMatch) Compare(a, b string) float64 {
	if strings.EqualFold(a, b) {
		return 1.0
	}
	return 0.0
}

func (f CaseInsensitiveMatch) Name() string {
	return "CaseInsensitiveMatch"
}

// Levenshtein calculates similarity using edit distance.
// The score is (maxLen - distance) / maxLen: a one-character edit on a long
// name barely dents the score, the same edit on a short name weighs heavily.
// Case-sensitive; callers normalize case beforehand.
type Levenshtein struct{}

func (f Levenshtein) Compare(a, b string) float64 {
	// Two empty strings are identical
	if a == "" && b == "" {
		return 1.0
	}

	distance := f.distance(a, b)
	maxLen := max(len([]rune(a)), len([]rune(b)))

	return float64(maxLen-distance) / float64(maxLen)
}

func (f Levenshtein) distance(a, b string) int {
	// Convert to runes to handle UTF-8 correctly
	s1 := []rune(a)
	s2 := []rune(b)

	// Create matrix
	rows, cols := len(s1)+1, len(s2)+1
	dist := make([][]int, rows)
	for i := 0; i < rows; i++ {
		dist[i] = make([]int, cols)
		dist[i][0] = i
	}
	for j := 0; j < cols; j++ {
		dist[0][j] = j
	}

	// Fill the matrix
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			var cost int
			if s1[i-1] == s2[j-1] {
				cost = 0
			} else {
				cost = 1
			}
			dist[i][j] = min(
				dist[i-1][j]+1,      // deletion
				dist[i][j-1]+1,      // insertion
				dist[i-1][j-1]+cost, // substitution
			)
		}
	}

	return dist[rows-1][cols-1]
}

func (f Levenshtein) Name() string {
	return "Levenshtein"
}

// Helper function to find the minimum of 2-3 integers
func min(a, b int, rest ...int) int {
	result := a
	if b < result {
		result = b
	}
	for _, v := range rest {
		if v < result {
			result = v
		}
	}
	return result
}

// Helper function to find the maximum of 2-3 integers
func max(a, b int, rest ...int) int {
	result := a
	if b > result {
		result = b
	}
	for _, v := range rest {
		if v > result {
			result = v
		}
	}
	return result
}
