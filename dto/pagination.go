package dto

// Pagination limits
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is one slice of a larger result set
type Page[T any] struct {
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Items  []T   `json:"items"`
}

// PageRequest carries offset/limit query parameters
type PageRequest struct {
	Offset int `form:"offset,default=0" binding:"min=0"`
	Limit  int `form:"limit,default=10" binding:"min=1,max=100"`
}
