package tatte

import "sort"

// UnassignedScore is the similarity carried by a candidate that was not assigned.
const UnassignedScore = -1.0

// Candidate is one ranked gallery match for a probe.
type Candidate struct {
	// IsAssigned is false when the candidate computation failed.
	IsAssigned bool `json:"is_assigned"`
	// TemplateID is the identifier from the enrollment manifest.
	TemplateID string `json:"template_id"`
	// SimilarityScore: higher means more likely the same tattoo.
	SimilarityScore float64 `json:"similarity_score"`
}

// NewCandidate returns an unassigned candidate.
func NewCandidate() Candidate {
	return Candidate{SimilarityScore: UnassignedScore}
}

// SortCandidates orders assigned candidates before unassigned ones and by
// non-increasing similarity. Equal candidates keep their relative order.
func SortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].IsAssigned != cs[j].IsAssigned {
			return cs[i].IsAssigned
		}
		return cs[i].SimilarityScore > cs[j].SimilarityScore
	})
}

// CandidatesSorted reports whether cs is in the order SortCandidates produces.
func CandidatesSorted(cs []Candidate) bool {
	for i := 1; i < len(cs); i++ {
		prev, cur := cs[i-1], cs[i]
		if !prev.IsAssigned && cur.IsAssigned {
			return false
		}
		if prev.IsAssigned == cur.IsAssigned && prev.SimilarityScore < cur.SimilarityScore {
			return false
		}
	}
	return true
}
