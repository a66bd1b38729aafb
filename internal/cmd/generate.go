package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/MeKo-Tech/terrasynth/internal/store"
	"github.com/MeKo-Tech/terrasynth/internal/terrain"
	"github.com/MeKo-Tech/terrasynth/internal/types"
	"github.com/MeKo-Tech/terrasynth/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate terrain",
	Long: `Generate a terrain height map and biome classification for a world
coordinate, either from flags or from a single JSON request argument.
The result envelope is written to stdout; failures produce a structured
error object on stderr and a non-zero exit code.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	// Single request flags
	generateCmd.Flags().Float64P("x", "x", 0, "World X coordinate")
	generateCmd.Flags().Float64P("y", "y", 0, "World Y coordinate")
	generateCmd.Flags().Float64P("z", "z", 0, "World Z coordinate (elevation bias)")
	generateCmd.Flags().Int64("seed", -1, "Deterministic seed (negative: draw a random seed and report it)")
	generateCmd.Flags().Int("size", types.DefaultSize, "Height map grid size (cells per edge)")
	generateCmd.Flags().String("algorithm", types.DefaultAlgorithm, "Generation algorithm (perlin_noise, diamond_square, simplex_noise)")
	generateCmd.Flags().String("request", "", "Complete request as a single JSON argument (overrides coordinate/seed/size flags)")

	// Batch generation flags
	generateCmd.Flags().String("seeds", "", "Seed range for batch generation: min-max (e.g., \"1-100\")")
	generateCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	generateCmd.Flags().Bool("progress", true, "Show progress bar during batch generation")
	generateCmd.Flags().Bool("allow-failures", false, "Continue batch generation even if some terrains fail")
	generateCmd.Flags().String("format", "folder", "Batch output format: folder or sqlite")
	generateCmd.Flags().String("output-file", "", "Output file path for sqlite format (e.g., terrains.db)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"generate.x", "x"},
		{"generate.y", "y"},
		{"generate.z", "z"},
		{"generate.seed", "seed"},
		{"generate.size", "size"},
		{"generate.algorithm", "algorithm"},
		{"generate.request", "request"},
		{"generate.seeds", "seeds"},
		{"generate.workers", "workers"},
		{"generate.progress", "progress"},
		{"generate.allow_failures", "allow-failures"},
		{"generate.format", "format"},
		{"generate.output_file", "output-file"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, generateCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	seeds := viper.GetString("generate.seeds")
	if seeds != "" {
		return runBatchGenerate(seeds)
	}
	return runSingleGenerate()
}

// runSingleGenerate services one request and writes the envelope to stdout.
func runSingleGenerate() error {
	req, err := requestFromConfig()
	if err != nil {
		return emitError(err)
	}

	logger.Debug("Starting terrain generation",
		"algorithm", req.Algorithm,
		"size", req.Size,
	)

	synth := terrain.New()
	result, err := synth.Synthesize(req)
	if err != nil {
		return emitError(err)
	}

	logger.Info("Terrain generated",
		"seed", result.Seed,
		"algorithm", result.Algorithm,
		"biomes", len(result.Biomes),
		"processing_ms", result.ProcessingTime,
	)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return emitError(fmt.Errorf("failed to encode result: %w", err))
	}
	fmt.Println(string(out))

	return nil
}

// requestFromConfig builds a request from the --request JSON argument or
// from the individual flags.
func requestFromConfig() (types.Request, error) {
	if raw := viper.GetString("generate.request"); raw != "" {
		return decodeRequest(raw)
	}

	coords := types.Coordinates{
		X: viper.GetFloat64("generate.x"),
		Y: viper.GetFloat64("generate.y"),
		Z: viper.GetFloat64("generate.z"),
	}
	req := types.Request{
		Coordinates: &coords,
		Algorithm:   viper.GetString("generate.algorithm"),
		Size:        viper.GetInt("generate.size"),
	}
	if seed := viper.GetInt64("generate.seed"); seed >= 0 {
		req.Seed = &seed
	}
	return req, nil
}

// decodeRequest parses a complete JSON request argument.
func decodeRequest(raw string) (types.Request, error) {
	var req types.Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return types.Request{}, fmt.Errorf("invalid request JSON: %w", err)
	}
	return req, nil
}

// emitError writes the structured error object to stderr before failing
// the command, so the surrounding process always gets the wire shape.
func emitError(err error) error {
	obj, marshalErr := json.Marshal(types.NewErrorObject(err))
	if marshalErr == nil {
		fmt.Fprintln(os.Stderr, string(obj))
	}
	return err
}

func runBatchGenerate(seedsStr string) error {
	seedMin, seedMax, err := parseSeedRange(seedsStr)
	if err != nil {
		return fmt.Errorf("invalid seeds: %w", err)
	}

	workers := viper.GetInt("generate.workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	showProgress := viper.GetBool("generate.progress")
	allowFailures := viper.GetBool("generate.allow_failures")
	format := viper.GetString("generate.format")
	outputFile := viper.GetString("generate.output_file")
	outputDir := viper.GetString("output-dir")
	size := viper.GetInt("generate.size")
	algorithm := viper.GetString("generate.algorithm")

	if format != "folder" && format != "sqlite" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'sqlite'", format)
	}
	if format == "sqlite" && outputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=sqlite")
	}

	coords := types.Coordinates{
		X: viper.GetFloat64("generate.x"),
		Y: viper.GetFloat64("generate.y"),
		Z: viper.GetFloat64("generate.z"),
	}

	total := int(seedMax - seedMin + 1)
	logger.Info("Starting batch terrain generation",
		"seeds", seedsStr,
		"terrains", total,
		"workers", workers,
		"format", format,
		"size", size,
		"algorithm", algorithm,
	)

	gen := &batchGenerator{
		synth:     terrain.New(),
		outputDir: outputDir,
	}

	if format == "sqlite" {
		writer, err := store.New(outputFile, store.Metadata{
			Name:        "terrasynth",
			Description: "Deterministic synthetic terrain archive",
			Algorithm:   algorithm,
			Version:     "1.0",
			SeedMin:     seedMin,
			SeedMax:     seedMax,
			Size:        size,
		})
		if err != nil {
			return fmt.Errorf("failed to create terrain archive: %w", err)
		}
		defer writer.Close()
		gen.store = writer
	} else {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received interrupt signal, cancelling...")
		cancel()
	}()

	tasks := make([]worker.Task, 0, total)
	for seed := seedMin; seed <= seedMax; seed++ {
		s := seed
		tasks = append(tasks, worker.Task{
			Request: types.Request{
				Coordinates: &coords,
				Algorithm:   algorithm,
				Seed:        &s,
				Size:        size,
			},
		})
	}

	progress := worker.NewProgress(len(tasks), showProgress)

	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Terrain generation failed", "task", r.Task.Label(), "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if format == "sqlite" {
		if err := gen.store.Flush(); err != nil {
			return fmt.Errorf("failed to flush terrain archive: %w", err)
		}
		logger.Info("Terrain archive complete", "path", outputFile)
	}

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some terrains failed to generate, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d terrains failed to generate", failedCount)
	}

	return nil
}

// batchGenerator persists one synthesized terrain per task, either as a
// JSON file or into a SQLite archive.
type batchGenerator struct {
	synth     *terrain.Synthesizer
	store     *store.Writer
	outputDir string
}

func (g *batchGenerator) Generate(ctx context.Context, req types.Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	result, err := g.synth.Synthesize(req)
	if err != nil {
		return "", err
	}

	if g.store != nil {
		if err := g.store.Write(*req.Coordinates, result); err != nil {
			return "", err
		}
		return fmt.Sprintf("sqlite:seed%d", result.Seed), nil
	}

	path := filepath.Join(g.outputDir,
		fmt.Sprintf("terrain_seed%d_%s.json", result.Seed, req.Coordinates.String()))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}

	return path, nil
}

// parseSeedRange parses a seed range string "min-max" into its bounds.
func parseSeedRange(s string) (int64, int64, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected min-max, got %q", s)
	}

	seedMin, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid min seed: %w", err)
	}
	seedMax, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid max seed: %w", err)
	}

	if seedMin < 0 || seedMax < 0 {
		return 0, 0, fmt.Errorf("seeds must be non-negative")
	}
	if seedMin > seedMax {
		return 0, 0, fmt.Errorf("min seed (%d) must be <= max seed (%d)", seedMin, seedMax)
	}

	return seedMin, seedMax, nil
}
