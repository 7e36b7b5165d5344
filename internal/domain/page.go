package domain

// Page is one page of a page+limit listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// HasMore reports whether another page exists after this one.
func (p Page[T]) HasMore() bool {
	if p.Total > 0 {
		return p.Page*p.Limit < p.Total
	}
	return p.Limit > 0 && len(p.Items) == p.Limit
}
