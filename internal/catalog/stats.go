package catalog

// Stats summarises the catalog. Each map counts records per raw field value,
// so unrecognized enum values get their own bucket.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByCategory map[string]int `json:"byCategory"`
	ByPriority map[string]int `json:"byPriority"`
}

// Stats computes totals over the in-memory collection at call time.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Total:      len(c.items),
		ByStatus:   make(map[string]int),
		ByCategory: make(map[string]int),
		ByPriority: make(map[string]int),
	}
	for _, u := range c.items {
		s.ByStatus[string(u.Status)]++
		s.ByCategory[u.Category]++
		s.ByPriority[string(u.Priority)]++
	}
	return s
}
