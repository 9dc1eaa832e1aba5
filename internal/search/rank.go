package search

import (
	"sort"

	"github.com/example/trip-sharing/internal/models"
)

// Rank orders candidates by the selected key and truncates to limit.
// The sort is stable so equal keys preserve relative input order.
func Rank(cands []models.Candidate, key models.RankKey, limit int) []models.Candidate {
	out := make([]models.Candidate, len(cands))
	copy(out, cands)
	switch key {
	case models.RankByRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case models.RankByRecency:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
