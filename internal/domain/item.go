package domain

// Item identifies one tradeable item tracked by the pipeline.
type Item struct {
	Key  string // identifier used by the market API
	Name string // human-readable name, optional
}
