package handlers

const (
	// Pagination bounds shared across list endpoints
	maxPageSize = 100

	// Track sorting
	sortPopularity = "popularity"
	sortRecent     = "recent"
	sortTitle      = "title"
)
