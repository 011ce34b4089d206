package ranker

import "sort"

// Rankable is a record ordered by population descending then name ascending
type Rankable interface {
	comparable
	RankName() string
	RankPopulation() int64
}

// Sort returns a sorted copy of records with nil entries dropped. Ties on
// population are broken by name so the order is deterministic.
func Sort[T Rankable](records []T) []T {
	var zero T
	sorted := make([]T, 0, len(records))
	for _, r := range records {
		if r != zero {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].RankPopulation(), sorted[j].RankPopulation()
		if pi != pj {
			return pi > pj
		}
		return sorted[i].RankName() < sorted[j].RankName()
	})
	return sorted
}

// Rank sorts records and keeps the first n. n <= 0 yields an empty slice and
// n past the end yields every record.
func Rank[T Rankable](records []T, n int) []T {
	if n <= 0 {
		return []T{}
	}
	sorted := Sort(records)
	if n >= len(sorted) {
		return sorted
	}
	return sorted[:n]
}
