package models

// QueryCount is how often one (search space, query) pair was processed.
type QueryCount struct {
	Facet Facet  `json:"space"`
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// QueryStats summarizes the search events seen by the stats worker.
type QueryStats struct {
	Popular  []QueryCount     `json:"popular"`
	Outcomes map[string]int64 `json:"outcomes"`
}
