package gesture

import (
	"cmp"
	"slices"
)

// Resolve merges candidates from all axes into the final gesture sequence.
//
// Candidates are ordered by index, directional candidates closer than
// FlipTolerance to a flip are dropped, and each cluster of the remaining
// candidates is reduced to its strongest member. A cluster spans
// ClusterWindow samples from its first member, not from the previous one.
func Resolve(cands []Candidate, p Params) []Label {
	kept := resolveCandidates(cands, p)
	labels := make([]Label, 0, len(kept))
	for _, c := range kept {
		labels = append(labels, c.Label)
	}
	return labels
}

func resolveCandidates(cands []Candidate, p Params) []Candidate {
	if len(cands) == 0 {
		return nil
	}

	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return cmp.Compare(a.Index, b.Index)
	})

	remaining := dropFlipShake(sorted, p.FlipTolerance)
	switch len(remaining) {
	case 0:
		return nil
	case 1:
		return remaining
	}
	return clusterMaxima(remaining, p.ClusterWindow)
}

// dropFlipShake removes directional candidates that sit within tolerance of
// any flip. Flips themselves are always kept.
func dropFlipShake(sorted []Candidate, tolerance int) []Candidate {
	var flips []int
	for _, c := range sorted {
		if c.Label == Flip {
			flips = append(flips, c.Index)
		}
	}
	if len(flips) == 0 {
		return sorted
	}

	out := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		if c.Label != Flip && nearAny(c.Index, flips, tolerance) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func nearAny(index int, others []int, tolerance int) bool {
	for _, o := range others {
		d := index - o
		if d < 0 {
			d = -d
		}
		if d < tolerance {
			return true
		}
	}
	return false
}

// clusterMaxima walks sorted candidates and keeps the first strongest member
// of every cluster. sorted must not be empty.
func clusterMaxima(sorted []Candidate, window int) []Candidate {
	var out []Candidate
	anchor := sorted[0].Index
	best := 0

	for i, c := range sorted {
		if c.Index > anchor+window {
			out = append(out, sorted[best])
			anchor = c.Index
			best = i
			continue
		}
		if c.Magnitude > sorted[best].Magnitude {
			best = i
		}
	}
	return append(out, sorted[best])
}
