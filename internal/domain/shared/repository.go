package shared

// Filter carries paging, ordering and the per-repository predicates keyed
// by the Filter* constants of each domain package
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]any
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
}

// With sets a filter predicate and returns the filter for chaining
func (f Filter) With(key string, value any) Filter {
	if f.Filters == nil {
		f.Filters = make(map[string]any)
	}
	f.Filters[key] = value
	return f
}
