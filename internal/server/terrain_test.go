package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MeKo-Tech/terrasynth/internal/terrain"
	"github.com/MeKo-Tech/terrasynth/internal/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(terrain.New(), Config{MaxConcurrent: 2, Timeout: 5 * time.Second}, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestTerrainEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/terrain?seed=42&size=4")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}

	var result types.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(result.HeightMap) != 4 {
		t.Errorf("Height map size = %d, want 4", len(result.HeightMap))
	}
	if result.Seed != 42 {
		t.Errorf("Seed = %d, want 42", result.Seed)
	}
	if len(result.Biomes) == 0 {
		t.Error("Expected at least one biome segment")
	}
}

func TestTerrainEndpointDeterminism(t *testing.T) {
	ts := newTestServer(t)

	fetch := func() types.Result {
		resp, err := http.Get(ts.URL + "/terrain?seed=7&size=4&x=1&y=2&z=3")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer resp.Body.Close()
		var result types.Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		return result
	}

	r1 := fetch()
	r2 := fetch()
	for y := range r1.HeightMap {
		for x := range r1.HeightMap[y] {
			if r1.HeightMap[y][x] != r2.HeightMap[y][x] {
				t.Fatalf("Cell (%d,%d) differs between identical requests", x, y)
			}
		}
	}
}

func TestTerrainEndpointUnknownAlgorithm(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/terrain?algorithm=unknown_algo&size=4")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", resp.StatusCode)
	}

	var errObj types.ErrorObject
	if err := json.NewDecoder(resp.Body).Decode(&errObj); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if errObj.Type != types.ErrorType {
		t.Errorf("Error type = %s, want %s", errObj.Type, types.ErrorType)
	}
}

func TestTerrainEndpointBadInput(t *testing.T) {
	ts := newTestServer(t)

	for _, query := range []string{
		"seed=abc",
		"size=0",
		"size=-1",
		"x=notanumber",
		"size=99999",
	} {
		resp, err := http.Get(ts.URL + "/terrain?" + query)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Status for %q = %d, want 400", query, resp.StatusCode)
		}
	}
}

func TestTerrainPNGEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/terrain.png?seed=1&size=4&mode=biome&image-size=16")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %s, want image/png", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	// PNG magic bytes
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("Response is not a PNG")
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
}
