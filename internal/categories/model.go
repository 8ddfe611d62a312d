package categories

import "time"

// Category groups products in the catalogue.
type Category struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code" validate:"required,max=32"`
	Name      string    `json:"name" validate:"required,max=120"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilters narrows a category listing.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}
