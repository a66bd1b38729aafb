package terrain

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/terrasynth/internal/types"
)

func TestClassifyBiomesPartition(t *testing.T) {
	// min 0, max 100: water level 20, mountain level 70.
	heightMap := [][]float64{
		{0, 10},
		{20, 100},
	}

	biomes := classifyBiomes(heightMap, types.Coordinates{X: 2})

	if len(biomes) != 2 {
		t.Fatalf("Expected 2 biomes (ocean, mountain), got %d", len(biomes))
	}

	ocean := biomes[0]
	if ocean.Type != BiomeOcean {
		t.Errorf("Expected first segment ocean, got %s", ocean.Type)
	}
	if ocean.Coverage != 0.75 {
		t.Errorf("Expected ocean coverage 0.75, got %f", ocean.Coverage)
	}
	if got := ocean.Characteristics["depth"]; got != 16.25 {
		t.Errorf("Expected depth 16.25 (half the mean), got %v", got)
	}
	if got := ocean.Characteristics["salinity"]; got != 0.035 {
		t.Errorf("Expected salinity 0.035, got %v", got)
	}
	if got := ocean.Characteristics["temperature"]; got != 25.0 {
		t.Errorf("Expected temperature 25 at z=0, got %v", got)
	}

	mountain := biomes[1]
	if mountain.Type != BiomeMountain {
		t.Errorf("Expected second segment mountain, got %s", mountain.Type)
	}
	if mountain.Coverage != 0.25 {
		t.Errorf("Expected mountain coverage 0.25, got %f", mountain.Coverage)
	}
	if got := mountain.Characteristics["elevation"]; got != 100.0 {
		t.Errorf("Expected elevation 100, got %v", got)
	}
	if got := mountain.Characteristics["snowLine"]; got != 80.0 {
		t.Errorf("Expected snow line at 80%% of the peak, got %v", got)
	}
}

func TestClassifyBiomesRockTypeParity(t *testing.T) {
	heightMap := [][]float64{
		{0, 10},
		{20, 100},
	}

	tests := []struct {
		name string
		x    float64
		want string
	}{
		{"even x", 2, "granite"},
		{"odd x", 3, "limestone"},
		{"zero x", 0, "granite"},
		{"fractional x", 2.5, "limestone"},
		{"negative even x", -4, "granite"},
		{"negative odd x", -3, "limestone"},
		{"negative fractional x", -2.5, "limestone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			biomes := classifyBiomes(heightMap, types.Coordinates{X: tt.x})
			mountain := biomes[len(biomes)-1]
			if mountain.Type != BiomeMountain {
				t.Fatalf("Expected mountain segment, got %s", mountain.Type)
			}
			if got := mountain.Characteristics["rockType"]; got != tt.want {
				t.Errorf("rockType = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyBiomesLand(t *testing.T) {
	// min 0, max 100: the two 50s are land.
	heightMap := [][]float64{
		{0, 50},
		{50, 100},
	}

	biomes := classifyBiomes(heightMap, types.Coordinates{})

	if len(biomes) != 3 {
		t.Fatalf("Expected 3 biomes, got %d", len(biomes))
	}

	land := biomes[2]
	// Humidity never drops below 0.5, so the desert branch cannot fire and
	// land defaults to forest.
	if land.Type != BiomeForest {
		t.Errorf("Expected forest, got %s", land.Type)
	}
	if land.Coverage != 0.5 {
		t.Errorf("Expected land coverage 0.5, got %f", land.Coverage)
	}
	if got := land.Characteristics["density"]; got != 0.7 {
		t.Errorf("Expected density 0.7 at humidity 0.5, got %v", got)
	}
	if got := land.Characteristics["temperature"]; got != 20.0 {
		t.Errorf("Expected temperature 20 at z=0, got %v", got)
	}
	trees, ok := land.Characteristics["treeTypes"].([]string)
	if !ok || len(trees) != 3 {
		t.Errorf("Expected 3 tree types, got %v", land.Characteristics["treeTypes"])
	}
}

func TestClassifyBiomesNegativeY(t *testing.T) {
	heightMap := [][]float64{
		{0, 50},
		{50, 100},
	}

	// y wraps into [0, 100) before the humidity gradient, so y=-80 behaves
	// like y=20: humidity 0.6, and land stays forest even where the hot
	// negative-z climate pushes temperature past the desert threshold.
	biomes := classifyBiomes(heightMap, types.Coordinates{Y: -80, Z: -300})

	land := biomes[len(biomes)-1]
	if land.Type != BiomeForest {
		t.Fatalf("Expected forest at y=-80, got %s", land.Type)
	}
	if got := land.Characteristics["temperature"]; got != 26.0 {
		t.Errorf("Expected temperature 26 at z=-300, got %v", got)
	}
	if got := land.Characteristics["density"]; got != 0.8 {
		t.Errorf("Expected density 0.8 at humidity 0.6, got %v", got)
	}
}

func TestClassifyBiomesFlatMap(t *testing.T) {
	heightMap := [][]float64{
		{5, 5},
		{5, 5},
	}

	biomes := classifyBiomes(heightMap, types.Coordinates{})

	if len(biomes) != 1 {
		t.Fatalf("Expected a flat map to collapse to one segment, got %d", len(biomes))
	}
	if biomes[0].Type != BiomeOcean {
		t.Errorf("Expected ocean, got %s", biomes[0].Type)
	}
	if biomes[0].Coverage != 1.0 {
		t.Errorf("Expected coverage 1.0, got %f", biomes[0].Coverage)
	}
}

func TestClassifyBiomesCoverageSum(t *testing.T) {
	maps := [][][]float64{
		{{0, 10}, {20, 100}},
		{{0, 50}, {50, 100}},
		{{5, 5}, {5, 5}},
		{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
	}

	for _, heightMap := range maps {
		sum := 0.0
		for _, b := range classifyBiomes(heightMap, types.Coordinates{X: 1, Y: 7}) {
			sum += b.Coverage
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("Coverage sum = %f, want 1.0 for map %v", sum, heightMap)
		}
	}
}

func TestClassifyBiomesClimate(t *testing.T) {
	heightMap := [][]float64{
		{0, 50},
		{50, 100},
	}

	// Ocean temperature drops with z and floors at 10.
	biomes := classifyBiomes(heightMap, types.Coordinates{Z: 2000})
	if got := biomes[0].Characteristics["temperature"]; got != 10.0 {
		t.Errorf("Expected ocean temperature floor of 10, got %v", got)
	}

	// Land temperature floors at 5.
	land := biomes[len(biomes)-1]
	if got := land.Characteristics["temperature"]; got != 5.0 {
		t.Errorf("Expected land temperature floor of 5, got %v", got)
	}

	// Humidity derives from y mod 100.
	biomes = classifyBiomes(heightMap, types.Coordinates{Y: 60})
	land = biomes[len(biomes)-1]
	if got := land.Characteristics["density"]; got != 1.0 {
		t.Errorf("Expected density capped at 1.0 for humid latitude, got %v", got)
	}
}
