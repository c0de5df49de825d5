package model

// PaginationMeta describes where a fetched page sits in a larger result set.
// It is only meaningful for the page it came from.
type PaginationMeta struct {
	TotalCount  int `json:"total_count" yaml:"total_count"`
	CurrentPage int `json:"current_page" yaml:"current_page"`
	LastPage    int `json:"last_page" yaml:"last_page"`
	PageSize    int `json:"page_size" yaml:"page_size"`
}

// SingleResource is the metadata of a detail endpoint.
func SingleResource() PaginationMeta {
	return PaginationMeta{TotalCount: 1}
}

// HasNext reports whether the service advertised a page after this one.
func (m PaginationMeta) HasNext() bool {
	return m.LastPage > 0 && m.CurrentPage < m.LastPage
}
