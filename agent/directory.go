package agent

import (
	"slices"
	"sync"
)

// Directory maps names to agents. Registering an existing name replaces it.
type Directory struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{agents: make(map[string]*Agent)}
}

// Register stores a under name.
func (d *Directory) Register(name string, a *Agent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents[name] = a
}

// Get returns the agent registered under name.
func (d *Directory) Get(name string) (*Agent, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.agents[name]
	return a, ok
}

// Names returns the registered names in sorted order.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.agents))
	for n := range d.agents {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
