// Package types defines the request and result envelope shared by the
// synthesizer, CLI, store, and server.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Default request values applied by Normalize.
const (
	DefaultAlgorithm = "perlin_noise"
	DefaultSize      = 64
)

// ErrMissingCoordinates is returned when a request arrives without a
// coordinates object.
var ErrMissingCoordinates = errors.New("missing coordinates")

// Coordinates identifies a world location. Z contributes only as a vertical
// elevation bias, not as a third noise dimension.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// String returns a filesystem-safe representation of the coordinate.
func (c Coordinates) String() string {
	return fmt.Sprintf("x%s_y%s_z%s", formatCoord(c.X), formatCoord(c.Y), formatCoord(c.Z))
}

// formatCoord renders a coordinate component without characters that are
// awkward in file names.
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	s = strings.ReplaceAll(s, "-", "m")
	return strings.ReplaceAll(s, ".", "p")
}

// Request is a single terrain generation request, typically decoded from
// one structured JSON argument.
type Request struct {
	Coordinates *Coordinates `json:"coordinates"`
	Algorithm   string       `json:"algorithm,omitempty"`
	Seed        *int64       `json:"seed,omitempty"`
	Size        int          `json:"size,omitempty"`
}

// Normalize fills in defaults and validates structural requirements.
// A request without coordinates is malformed.
func (r *Request) Normalize() error {
	if r.Coordinates == nil {
		return ErrMissingCoordinates
	}
	if r.Algorithm == "" {
		r.Algorithm = DefaultAlgorithm
	}
	if r.Size == 0 {
		r.Size = DefaultSize
	}
	if r.Size < 1 {
		return fmt.Errorf("grid size must be at least 1, got %d", r.Size)
	}
	return nil
}

// Biome describes one classified region of a height map.
type Biome struct {
	Characteristics map[string]any `json:"characteristics"`
	Type            string         `json:"type"`
	Coverage        float64        `json:"coverage"`
}

// Result is the complete outcome of one generation request. Field names
// follow the wire envelope consumed by the surrounding process.
type Result struct {
	Algorithm      string      `json:"algorithm"`
	HeightMap      [][]float64 `json:"heightMap"`
	Biomes         []Biome     `json:"biomes"`
	ProcessingTime float64     `json:"processingTime"` // milliseconds
	Seed           int64       `json:"seed"`
}

// ErrorObject is the structured error reported across the process
// boundary when a request fails.
type ErrorObject struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// ErrorType is the category attached to every terrain generation failure.
const ErrorType = "TerrainGenerationError"

// NewErrorObject wraps err into the wire error shape.
func NewErrorObject(err error) ErrorObject {
	return ErrorObject{Error: err.Error(), Type: ErrorType}
}
