// Package store persists generated terrain results in a SQLite archive so
// batch runs can be queried and reproduced later.
package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no archived terrain matches a lookup.
var ErrNotFound = errors.New("terrain not found")

// Metadata describes an archive.
type Metadata struct {
	Name        string // Human-readable archive identifier
	Description string // Human-readable description
	Algorithm   string // Algorithm used for all entries, if uniform
	Version     string // Version string
	SeedMin     int64  // Lowest seed in the archive
	SeedMax     int64  // Highest seed in the archive
	Size        int    // Grid size of all entries, if uniform
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Algorithm != "" {
		result["algorithm"] = m.Algorithm
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	if m.SeedMin != 0 || m.SeedMax != 0 {
		result["seed_min"] = fmt.Sprintf("%d", m.SeedMin)
		result["seed_max"] = fmt.Sprintf("%d", m.SeedMax)
	}
	if m.Size > 0 {
		result["size"] = fmt.Sprintf("%d", m.Size)
	}

	return result
}
