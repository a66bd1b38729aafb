package terrain

import (
	"math"

	"github.com/MeKo-Tech/terrasynth/internal/types"
)

// Biome type names.
const (
	BiomeOcean    = "ocean"
	BiomeMountain = "mountain"
	BiomeDesert   = "desert"
	BiomeForest   = "forest"
)

// Classification thresholds, expressed as fractions of the height range.
const (
	WaterLevelFraction    = 0.2
	MountainLevelFraction = 0.7
)

// Land-type selection thresholds.
const (
	DesertTemperature = 25.0
	DesertHumidity    = 0.3
)

const oceanSalinity = 0.035

// snowLineFraction places the mountain snow line relative to the peak.
const snowLineFraction = 0.8

// classifyBiomes partitions a completed height map into water, mountain,
// and land cells and emits one segment per populated class, in that order.
// The partition is exclusive, water before mountain; for any map with a
// non-zero height range the two thresholds cannot overlap, so this only
// matters for flat maps, which collapse to a single ocean segment with
// coverage 1.0.
func classifyBiomes(heightMap [][]float64, coords types.Coordinates) []types.Biome {
	size := len(heightMap)
	totalCells := float64(size * size)

	minHeight := math.Inf(1)
	maxHeight := math.Inf(-1)
	sum := 0.0
	for _, row := range heightMap {
		for _, h := range row {
			minHeight = math.Min(minHeight, h)
			maxHeight = math.Max(maxHeight, h)
			sum += h
		}
	}
	meanHeight := sum / totalCells

	heightRange := maxHeight - minHeight
	waterLevel := minHeight + heightRange*WaterLevelFraction
	mountainLevel := minHeight + heightRange*MountainLevelFraction

	var waterCells, mountainCells int
	for _, row := range heightMap {
		for _, h := range row {
			switch {
			case h <= waterLevel:
				waterCells++
			case h >= mountainLevel:
				mountainCells++
			}
		}
	}
	landCells := size*size - waterCells - mountainCells

	biomes := make([]types.Biome, 0, 3)

	if waterCells > 0 {
		biomes = append(biomes, types.Biome{
			Type:     BiomeOcean,
			Coverage: float64(waterCells) / totalCells,
			Characteristics: map[string]any{
				"depth":       round2(meanHeight * 0.5),
				"salinity":    oceanSalinity,
				"temperature": math.Max(10, 25-coords.Z*0.01),
			},
		})
	}

	if mountainCells > 0 {
		rockType := "granite"
		if math.Mod(coords.X, 2) != 0 {
			rockType = "limestone"
		}
		biomes = append(biomes, types.Biome{
			Type:     BiomeMountain,
			Coverage: float64(mountainCells) / totalCells,
			Characteristics: map[string]any{
				"elevation": round2(maxHeight),
				"rockType":  rockType,
				"snowLine":  round2(maxHeight * snowLineFraction),
			},
		})
	}

	if landCells > 0 {
		biomes = append(biomes, landBiome(float64(landCells)/totalCells, coords))
	}

	return biomes
}

// landBiome classifies the single land segment as desert or forest from
// the climate at the world coordinate.
func landBiome(coverage float64, coords types.Coordinates) types.Biome {
	temperature := math.Max(5, 20-coords.Z*0.02)
	humidity := 0.5 + flooredMod(coords.Y, 100)*0.005

	// humidity is in [0.5, 1.0), so in practice land always classifies as
	// forest; the desert branch needs a drier humidity model to fire.
	if temperature > DesertTemperature && humidity < DesertHumidity {
		return types.Biome{
			Type:     BiomeDesert,
			Coverage: coverage,
			Characteristics: map[string]any{
				"temperature": round1(temperature),
				"sandType":    "quartz",
				"rainfall":    round1(humidity * 100),
			},
		}
	}

	return types.Biome{
		Type:     BiomeForest,
		Coverage: coverage,
		Characteristics: map[string]any{
			"treeTypes":   []string{"oak", "pine", "birch"},
			"density":     round2(math.Min(1.0, humidity+0.2)),
			"temperature": round1(temperature),
		},
	}
}

// flooredMod is the floored modulus: the result carries the divisor's sign,
// so negative coordinates map into [0, m) rather than (-m, 0]. math.Mod
// keeps the dividend's sign, which would invert the humidity gradient on
// the negative-y half of the world.
func flooredMod(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}
