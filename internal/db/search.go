package db

// TagFilter restricts a search to documents whose tag field matches any of
// the given values (OR semantics within a filter, AND across filters).
type TagFilter struct {
	Field string
	AnyOf []string
}

// RangeFilter restricts a search to documents whose numeric field lies in
// [Min, Max]. Unset bounds are open.
type RangeFilter struct {
	Field  string
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// KNNQuery is the input for vector similarity search. Tags and Ranges are
// applied as a hard pre-filter before the KNN ranking.
type KNNQuery struct {
	IndexName    string
	Tags         []TagFilter
	Ranges       []RangeFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
