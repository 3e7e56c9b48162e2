package ranking

import "math"

// Candidate is a ranked catalog entry: a similarity score and a product identifier.
// Produced fresh per query, never persisted.
type Candidate struct {
	id    string
	score float64
}

// NewCandidate creates a ranked candidate.
func NewCandidate(id string, score float64) Candidate {
	return Candidate{id: id, score: score}
}

// ID returns the product identifier.
func (c Candidate) ID() string { return c.id }

// Score returns the similarity score.
func (c Candidate) Score() float64 { return c.score }

// Less orders candidates for ranking: higher score first, ties broken by
// descending identifier so the order never depends on catalog iteration.
// NaN scores rank below every number and tie among themselves.
func Less(a, b Candidate) bool {
	aNaN, bNaN := math.IsNaN(a.score), math.IsNaN(b.score)
	switch {
	case aNaN && bNaN:
		return a.id > b.id
	case aNaN:
		return false
	case bNaN:
		return true
	case a.score != b.score:
		return a.score > b.score
	}
	return a.id > b.id
}

// Compare is the slices.SortFunc form of Less.
func Compare(a, b Candidate) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}
