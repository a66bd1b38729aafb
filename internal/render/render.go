// Package render turns height maps into raster images. It replaces the
// structured result's numeric grid with something a human can eyeball:
// a grayscale relief or a biome-colored map, with optional paper grain
// and softening.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/disintegration/gift"
	xdraw "golang.org/x/image/draw"
)

// Render modes.
const (
	ModeGrayscale = "grayscale"
	ModeBiome     = "biome"
)

// Options controls height map rendering.
type Options struct {
	Mode          string  // grayscale or biome
	OutputSize    int     // output image edge length in pixels (default 256)
	GrainScale    float64 // noise feature size in pixels (0 disables grain)
	GrainStrength float64 // grain intensity, 0..1
	BlurSigma     float32 // gaussian blur sigma (0 disables)
	Seed          int64   // seed for the grain noise
}

// Biome palette, roughly matching the classifier's water/mountain bands.
var (
	waterColor    = color.NRGBA{R: 105, G: 160, B: 210, A: 255}
	landColor     = color.NRGBA{R: 122, G: 170, B: 120, A: 255}
	mountainColor = color.NRGBA{R: 200, G: 196, B: 190, A: 255}
)

// Thresholds mirroring the biome classifier's range fractions.
const (
	waterFraction    = 0.2
	mountainFraction = 0.7
)

// HeightMap renders a height map into an image.
func HeightMap(heightMap [][]float64, opts Options) (*image.NRGBA, error) {
	size := len(heightMap)
	if size == 0 {
		return nil, fmt.Errorf("height map is empty")
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeGrayscale
	}
	if mode != ModeGrayscale && mode != ModeBiome {
		return nil, fmt.Errorf("unknown render mode %q", mode)
	}

	outputSize := opts.OutputSize
	if outputSize <= 0 {
		outputSize = 256
	}

	minHeight, maxHeight := heightRange(heightMap)

	// One pixel per cell first, then scale to the output size. Nearest
	// neighbour keeps cell edges crisp; the optional blur softens them.
	cells := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := normalize(heightMap[y][x], minHeight, maxHeight)
			if mode == ModeGrayscale {
				g := uint8(math.Round(t * 255))
				cells.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
			} else {
				cells.SetNRGBA(x, y, biomeColor(t))
			}
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, outputSize, outputSize))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), cells, cells.Bounds(), xdraw.Src, nil)

	if opts.GrainScale > 0 && opts.GrainStrength > 0 {
		applyGrain(out, opts.GrainScale, opts.GrainStrength, opts.Seed)
	}

	if opts.BlurSigma > 0 {
		g := gift.New(gift.GaussianBlur(opts.BlurSigma))
		blurred := image.NewNRGBA(g.Bounds(out.Bounds()))
		g.Draw(blurred, out)
		out = blurred
	}

	return out, nil
}

// heightRange returns the min and max cell values.
func heightRange(heightMap [][]float64) (float64, float64) {
	minHeight := math.Inf(1)
	maxHeight := math.Inf(-1)
	for _, row := range heightMap {
		for _, h := range row {
			minHeight = math.Min(minHeight, h)
			maxHeight = math.Max(maxHeight, h)
		}
	}
	return minHeight, maxHeight
}

// normalize maps h into [0,1] over the map's range. Flat maps render as
// mid-gray land.
func normalize(h, minHeight, maxHeight float64) float64 {
	if maxHeight == minHeight {
		return 0.5
	}
	return (h - minHeight) / (maxHeight - minHeight)
}

// biomeColor maps a normalized height to the palette.
func biomeColor(t float64) color.NRGBA {
	switch {
	case t <= waterFraction:
		return waterColor
	case t >= mountainFraction:
		return mountainColor
	default:
		return landColor
	}
}

// applyGrain perturbs the image with deterministic Perlin noise so flat
// regions don't look synthetic. The perturbation is centered, so average
// brightness is preserved.
func applyGrain(img *image.NRGBA, scale, strength float64, seed int64) {
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)
	bounds := img.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// Noise value in roughly [-1, 1].
			val := p.Noise2D(float64(x)/scale, float64(y)/scale)
			delta := val * strength * 32

			c := img.NRGBAAt(x, y)
			c.R = clampChannel(float64(c.R) + delta)
			c.G = clampChannel(float64(c.G) + delta)
			c.B = clampChannel(float64(c.B) + delta)
			img.SetNRGBA(x, y, c)
		}
	}
}

// clampChannel clamps to a valid 8-bit channel value.
func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// EncodePNG writes img as PNG with the named compression level
// (default, speed, best, none).
func EncodePNG(w io.Writer, img image.Image, compression string) error {
	enc := png.Encoder{}
	switch compression {
	case "", "default":
		enc.CompressionLevel = png.DefaultCompression
	case "speed":
		enc.CompressionLevel = png.BestSpeed
	case "best":
		enc.CompressionLevel = png.BestCompression
	case "none":
		enc.CompressionLevel = png.NoCompression
	default:
		return fmt.Errorf("unknown png compression %q", compression)
	}
	return enc.Encode(w, img)
}
