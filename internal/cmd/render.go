package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/terrasynth/internal/render"
	"github.com/MeKo-Tech/terrasynth/internal/terrain"
	"github.com/MeKo-Tech/terrasynth/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a terrain height map to PNG",
	Long: `Render a terrain height map as a PNG image, either from a previously
generated result JSON file or by generating one inline from the usual
generation flags.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("input", "", "Result JSON file to render (empty: generate inline)")
	renderCmd.Flags().StringP("output", "o", "", "Output PNG path (default: <output-dir>/terrain_seed<seed>.png)")
	renderCmd.Flags().String("mode", render.ModeGrayscale, "Render mode: grayscale or biome")
	renderCmd.Flags().Int("image-size", 256, "Output image edge length in pixels")
	renderCmd.Flags().Bool("hidpi", false, "Also render a 2x (@2x) image alongside the base image")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	renderCmd.Flags().Float64("grain-scale", 0, "Paper grain feature size in pixels (0 disables)")
	renderCmd.Flags().Float64("grain-strength", 0.5, "Paper grain intensity (0..1)")
	renderCmd.Flags().Float32("blur", 0, "Gaussian blur sigma (0 disables)")

	// Inline generation flags
	renderCmd.Flags().Float64P("x", "x", 0, "World X coordinate")
	renderCmd.Flags().Float64P("y", "y", 0, "World Y coordinate")
	renderCmd.Flags().Float64P("z", "z", 0, "World Z coordinate (elevation bias)")
	renderCmd.Flags().Int64("seed", -1, "Deterministic seed (negative: draw a random seed)")
	renderCmd.Flags().Int("size", types.DefaultSize, "Height map grid size (cells per edge)")
	renderCmd.Flags().String("algorithm", types.DefaultAlgorithm, "Generation algorithm")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"render.input", "input"},
		{"render.output", "output"},
		{"render.mode", "mode"},
		{"render.image_size", "image-size"},
		{"render.hidpi", "hidpi"},
		{"render.png_compression", "png-compression"},
		{"render.grain_scale", "grain-scale"},
		{"render.grain_strength", "grain-strength"},
		{"render.blur", "blur"},
		{"render.x", "x"},
		{"render.y", "y"},
		{"render.z", "z"},
		{"render.seed", "seed"},
		{"render.size", "size"},
		{"render.algorithm", "algorithm"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	result, err := loadOrGenerate()
	if err != nil {
		return err
	}

	outputPath := viper.GetString("render.output")
	if outputPath == "" {
		outputDir := viper.GetString("output-dir")
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		outputPath = filepath.Join(outputDir, fmt.Sprintf("terrain_seed%d.png", result.Seed))
	}

	imageSize := viper.GetInt("render.image_size")
	compression := viper.GetString("render.png_compression")
	opts := render.Options{
		Mode:          viper.GetString("render.mode"),
		OutputSize:    imageSize,
		GrainScale:    viper.GetFloat64("render.grain_scale"),
		GrainStrength: viper.GetFloat64("render.grain_strength"),
		BlurSigma:     float32(viper.GetFloat64("render.blur")),
		Seed:          result.Seed,
	}

	if err := renderToFile(result, opts, outputPath, compression); err != nil {
		return err
	}
	logger.Info("Terrain rendered", "seed", result.Seed, "path", outputPath, "mode", opts.Mode)

	if viper.GetBool("render.hidpi") {
		opts2x := opts
		opts2x.OutputSize = imageSize * 2
		path2x := hidpiPath(outputPath)
		if err := renderToFile(result, opts2x, path2x, compression); err != nil {
			return fmt.Errorf("failed to render hidpi image: %w", err)
		}
		logger.Info("HiDPI terrain rendered", "seed", result.Seed, "path", path2x)
	}

	return nil
}

// loadOrGenerate reads the input result file, or synthesizes a terrain
// from the inline flags when no input is given.
func loadOrGenerate() (*types.Result, error) {
	if input := viper.GetString("render.input"); input != "" {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		var result types.Result
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to decode input: %w", err)
		}
		if len(result.HeightMap) == 0 {
			return nil, fmt.Errorf("input %s contains no height map", input)
		}
		return &result, nil
	}

	coords := types.Coordinates{
		X: viper.GetFloat64("render.x"),
		Y: viper.GetFloat64("render.y"),
		Z: viper.GetFloat64("render.z"),
	}
	req := types.Request{
		Coordinates: &coords,
		Algorithm:   viper.GetString("render.algorithm"),
		Size:        viper.GetInt("render.size"),
	}
	if seed := viper.GetInt64("render.seed"); seed >= 0 {
		req.Seed = &seed
	}

	return terrain.New().Synthesize(req)
}

// renderToFile renders the height map and writes it to path.
func renderToFile(result *types.Result, opts render.Options, path, compression string) error {
	img, err := render.HeightMap(result.HeightMap, opts)
	if err != nil {
		return fmt.Errorf("failed to render height map: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := render.EncodePNG(f, img, compression); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// hidpiPath inserts the @2x marker before the file extension.
func hidpiPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "@2x" + ext
}
