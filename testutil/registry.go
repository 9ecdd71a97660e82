package testutil

import (
	"time"

	"github.com/skosovsky/toolrelay"
)

// NewTestRegistry returns a Registry with long timeout and panic recovery enabled,
// suitable for tests.
func NewTestRegistry(tools ...toolrelay.Tool) *toolrelay.Registry {
	reg := toolrelay.NewRegistry(
		toolrelay.WithDefaultTimeout(30*time.Second),
		toolrelay.WithRecoverPanics(true),
	)
	for _, t := range tools {
		reg.Register(t)
	}
	return reg
}
