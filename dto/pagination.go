package dto

// Pagination is a generic pagination envelope for list results.
// Page is 1-based; Total counts all rows regardless of paging.
type Pagination[T any] struct {
	Data     []T   `json:"data"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	HasNext  bool  `json:"has_next"`
}

// PaginationEditionDTO is a concrete swagger-friendly type for the archive response
// swagger:model PaginationEditionDTO
type PaginationEditionDTO struct {
	Data     []EditionSummaryDTO `json:"data"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Total    int64               `json:"total"`
	HasNext  bool                `json:"has_next"`
}
