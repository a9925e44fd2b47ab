package models

// ContentRating classifies catalog entries and caps what a profile may view.
type ContentRating string

const (
	RatingG    ContentRating = "G"
	RatingPG   ContentRating = "PG"
	RatingPG13 ContentRating = "PG-13"
	RatingR    ContentRating = "R"
	RatingNC17 ContentRating = "NC-17"
)

// RatingHierarchy orders every known rating from least to most restrictive.
// All access decisions reduce to positions in this slice.
var RatingHierarchy = []ContentRating{RatingG, RatingPG, RatingPG13, RatingR, RatingNC17}

// RatingRank returns the position of r in the hierarchy, or -1 when r is not
// a known rating.
func RatingRank(r ContentRating) int {
	for i, known := range RatingHierarchy {
		if known == r {
			return i
		}
	}
	return -1
}

// ValidRating reports whether r belongs to the hierarchy.
func ValidRating(r ContentRating) bool {
	return RatingRank(r) >= 0
}

// AllowedUnder reports whether content rated r may be viewed under the given
// ceiling. An unknown rating is never allowed, regardless of the ceiling.
func (r ContentRating) AllowedUnder(ceiling ContentRating) bool {
	rank := RatingRank(r)
	return rank >= 0 && rank <= RatingRank(ceiling)
}

// AllowedRatings returns the hierarchy prefix at or below ceiling, suitable
// for narrowing catalog queries. Returns nil for an unknown ceiling.
func AllowedRatings(ceiling ContentRating) []ContentRating {
	idx := RatingRank(ceiling)
	if idx < 0 {
		return nil
	}
	out := make([]ContentRating, idx+1)
	copy(out, RatingHierarchy[:idx+1])
	return out
}
