package tilemap

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenOptions - параметры генерации карты.
type GenOptions struct {
	Width  int
	Height int
	Seed   int64

	// Пороги высоты [0,1]
	WaterLevel float64
	RockLevel  float64

	// Порог влажности для леса
	ForestLevel float64
}

// DefaultGenOptions возвращает разумные стартовые параметры.
func DefaultGenOptions(seed int64) GenOptions {
	return GenOptions{
		Width:       64,
		Height:      64,
		Seed:        seed,
		WaterLevel:  0.30,
		RockLevel:   0.75,
		ForestLevel: 0.60,
	}
}

// Generate строит карту по двум независимым слоям шума: высота и
// влажность. Одинаковое зерно дает одинаковую карту.
func Generate(opts GenOptions) *TileMap {
	elevNoise := opensimplex.NewNormalized(opts.Seed)
	moistNoise := opensimplex.NewNormalized(opts.Seed + 1)

	m := NewTileMap(opts.Width, opts.Height)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			fx, fy := float64(x), float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.05, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.04, 0.5)

			// Прижимаем края к воде, чтобы карта была островом
			nx := fx/float64(m.Width)*2 - 1
			ny := fy/float64(m.Height)*2 - 1
			edge := math.Max(math.Abs(nx), math.Abs(ny))
			elev *= 1.0 - math.Pow(edge, 3)

			m.SetTile(x, y, Tile{
				Kind:      deriveKind(elev, moist, opts),
				Elevation: elev,
			})
		}
	}
	return m
}

// deriveKind выбирает тип местности по высоте и влажности.
func deriveKind(elev, moist float64, opts GenOptions) TileKind {
	switch {
	case elev < opts.WaterLevel:
		return TileWater
	case elev > opts.RockLevel:
		return TileRock
	case elev < opts.WaterLevel+0.05:
		return TileSand
	case moist > opts.ForestLevel:
		return TileForest
	default:
		return TileGrass
	}
}

// octaveNoise складывает несколько частот шума в фрактальный слой.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
