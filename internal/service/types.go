package service

import "time"

// RunFilter narrows run history by time range and recipe name.
type RunFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Recipe string    // exact recipe name; empty matches all
}
