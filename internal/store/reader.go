package store

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/MeKo-Tech/terrasynth/internal/types"
)

// Reader reads terrain results from a SQLite archive.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens an archive for reading.
func OpenReader(path string) (*Reader, error) {
	// Open in read-only mode with immutable flag
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify schema exists
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='terrains'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain terrains table")
	}

	return &Reader{
		db:   db,
		path: path,
	}, nil
}

// Read looks up a single archived terrain by its full key and returns the
// decoded result envelope.
func (r *Reader) Read(seed int64, coords types.Coordinates, algorithm string, size int) (*types.Result, error) {
	var compressed []byte
	err := r.db.QueryRow(
		"SELECT result FROM terrains WHERE seed=? AND x=? AND y=? AND z=? AND algorithm=? AND size=?",
		seed, coords.X, coords.Y, coords.Z, algorithm, size,
	).Scan(&compressed)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: seed=%d %s %s size=%d", ErrNotFound, seed, coords.String(), algorithm, size)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query terrain: %w", err)
	}

	data, err := gzipDecompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress terrain: %w", err)
	}

	var result types.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode terrain: %w", err)
	}

	return &result, nil
}

// Seeds returns the distinct seeds stored in the archive, ascending.
func (r *Reader) Seeds() ([]int64, error) {
	rows, err := r.db.Query("SELECT DISTINCT seed FROM terrains ORDER BY seed")
	if err != nil {
		return nil, fmt.Errorf("failed to query seeds: %w", err)
	}
	defer rows.Close()

	var seeds []int64
	for rows.Next() {
		var seed int64
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed row: %w", err)
		}
		seeds = append(seeds, seed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seeds: %w", err)
	}

	return seeds, nil
}

// Count returns the number of archived terrains.
func (r *Reader) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM terrains").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count terrains: %w", err)
	}
	return count, nil
}

// Metadata reads archive metadata from the database.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	metaMap := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		metaMap[name] = value
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	meta := Metadata{
		Name:        metaMap["name"],
		Description: metaMap["description"],
		Algorithm:   metaMap["algorithm"],
		Version:     metaMap["version"],
	}
	if v, ok := metaMap["seed_min"]; ok {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			meta.SeedMin = i
		}
	}
	if v, ok := metaMap["seed_max"]; ok {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			meta.SeedMax = i
		}
	}
	if v, ok := metaMap["size"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			meta.Size = i
		}
	}

	return meta, nil
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// gzipDecompress decompresses gzip data.
func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
