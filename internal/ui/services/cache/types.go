package cache

import (
	"time"

	"typeahead/internal/domain"
)

// Entry is a cached page and the time it was fetched
type Entry struct {
	Page      domain.ResultPage
	FetchedAt time.Time
}

// Stats counts cache traffic since creation
type Stats struct {
	Hits      int
	Misses    int
	Expired   int
	Evictions int
}
