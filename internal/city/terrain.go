package city

import (
	"github.com/aquilax/go-perlin"

	"github.com/annel0/codecity/internal/vec"
)

// TileKind определяет тип декоративной клетки грунта
type TileKind uint8

const (
	TilePlain TileKind = iota
	TilePark
	TileWater
)

// GroundTile — декоративная клетка грунта вокруг города.
// Физика и пикер её не видят, потребляет только рендерер.
type GroundTile struct {
	Cell     vec.Vec2 `json:"cell"`
	Kind     TileKind `json:"kind"`
	Material int      `json:"material"`
}

// Пороги шума для типов грунта
const (
	waterMax = 0.35
	parkMin  = 0.62
)

// GenerateTerrain строит грунт на прямоугольнике (0,0)..(w,d) с полем
// Перлина. Сид фиксируется вызывающим, поэтому результат детерминирован
// и совпадает между ресканами.
func GenerateTerrain(w, d int, seed int64) []GroundTile {
	if w <= 0 || d <= 0 {
		return nil
	}

	const noiseScale = 0.07
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)

	tiles := make([]GroundTile, 0, w*d)
	for z := 0; z < d; z++ {
		for x := 0; x < w; x++ {
			// Noise2D даёт [-1, 1]; приводим к [0, 1]
			n := (p.Noise2D(float64(x)*noiseScale, float64(z)*noiseScale) + 1) / 2

			kind := TilePlain
			switch {
			case n < waterMax:
				kind = TileWater
			case n > parkMin:
				kind = TilePark
			}

			tiles = append(tiles, GroundTile{
				Cell:     vec.Vec2{X: x, Y: z},
				Kind:     kind,
				Material: int(kind),
			})
		}
	}
	return tiles
}
