// Package server exposes the synthesizer over HTTP for on-demand terrain
// generation during integration testing.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/terrasynth/internal/render"
	"github.com/MeKo-Tech/terrasynth/internal/terrain"
	"github.com/MeKo-Tech/terrasynth/internal/types"
)

// Config configures the terrain server.
type Config struct {
	CacheControl  string
	MaxConcurrent int
	Timeout       time.Duration
	MaxSize       int
}

// TerrainServer serves terrain results as JSON and PNG.
type TerrainServer struct {
	synth  *terrain.Synthesizer
	logger *slog.Logger
	sem    chan struct{}
	cfg    Config
}

// New creates a terrain server around synth.
func New(synth *terrain.Synthesizer, cfg Config, logger *slog.Logger) *TerrainServer {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1024
	}

	return &TerrainServer{
		synth:  synth,
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Handler returns the HTTP handler for the server.
func (s *TerrainServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /terrain", s.handleTerrain)
	mux.HandleFunc("GET /terrain.png", s.handleTerrainPNG)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// handleTerrain generates a terrain and returns the JSON envelope.
func (s *TerrainServer) handleTerrain(w http.ResponseWriter, r *http.Request) {
	result, ok := s.generate(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("failed to write terrain response", "error", err)
	}
}

// handleTerrainPNG generates a terrain and returns a rendered image.
func (s *TerrainServer) handleTerrainPNG(w http.ResponseWriter, r *http.Request) {
	result, ok := s.generate(w, r)
	if !ok {
		return
	}

	opts := render.Options{
		Mode: r.URL.Query().Get("mode"),
		Seed: result.Seed,
	}
	if v := r.URL.Query().Get("image-size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid image-size"))
			return
		}
		opts.OutputSize = n
	}

	img, err := render.HeightMap(result.HeightMap, opts)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	if err := render.EncodePNG(w, img, "default"); err != nil {
		s.logger.Error("failed to write terrain image", "error", err)
	}
}

// generate parses the request, acquires a generation slot, and runs the
// synthesizer. On failure it writes the structured error itself and
// returns ok=false.
func (s *TerrainServer) generate(w http.ResponseWriter, r *http.Request) (*types.Result, bool) {
	req, err := parseRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if req.Size > s.cfg.MaxSize {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("size %d exceeds limit of %d", req.Size, s.cfg.MaxSize))
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.writeError(w, http.StatusServiceUnavailable, errors.New("generation queue timeout"))
		return nil, false
	}

	start := time.Now()
	result, err := s.synth.Synthesize(req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, terrain.ErrUnsupportedAlgorithm) || errors.Is(err, types.ErrMissingCoordinates) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return nil, false
	}

	s.logger.Debug("terrain generated",
		"seed", result.Seed,
		"algorithm", result.Algorithm,
		"size", req.Size,
		"elapsed", time.Since(start),
	)
	return result, true
}

// parseRequest builds a generation request from query parameters.
func parseRequest(r *http.Request) (types.Request, error) {
	q := r.URL.Query()
	req := types.Request{
		Coordinates: &types.Coordinates{},
		Algorithm:   q.Get("algorithm"),
	}

	for _, c := range []struct {
		dst *float64
		key string
	}{
		{&req.Coordinates.X, "x"},
		{&req.Coordinates.Y, "y"},
		{&req.Coordinates.Z, "z"},
	} {
		if v := q.Get(c.key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return types.Request{}, errors.New("invalid coordinate " + c.key)
			}
			*c.dst = f
		}
	}

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return types.Request{}, errors.New("invalid seed")
		}
		req.Seed = &seed
	}

	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return types.Request{}, errors.New("invalid size")
		}
		req.Size = size
	}

	return req, nil
}

// writeError reports a structured error object.
func (s *TerrainServer) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("terrain request failed", "status", status, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(types.NewErrorObject(err)); encErr != nil {
		s.logger.Error("failed to write error response", "error", encErr)
	}
}
