package models

// AnimeFilter narrows catalog queries. Zero values mean "no restriction".
type AnimeFilter struct {
	Genre         string
	Status        AnimeStatus
	ContentRating ContentRating
	// Ratings, when non-empty, restricts results to the given set. Used by
	// the recommendation path to apply a profile's ceiling.
	Ratings []ContentRating
	// Search matches title and synopsis.
	Search string
	// ExternalID matches the external-source identifier exactly.
	ExternalID string
}

// ListOptions carries sort and pagination parameters for list queries.
type ListOptions struct {
	Sort  string // API sort key; unknown keys fall back to creation time
	Desc  bool
	Skip  int
	Limit int
}

// Pagination is the metadata block returned alongside every paginated list.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPagination derives pagination metadata from a total row count and the
// skip/limit that produced the page.
func NewPagination(total, skip, limit int) Pagination {
	if limit <= 0 {
		limit = 20
	}
	pages := (total + limit - 1) / limit
	return Pagination{
		Total:      total,
		Page:       skip/limit + 1,
		PageSize:   limit,
		TotalPages: pages,
	}
}
