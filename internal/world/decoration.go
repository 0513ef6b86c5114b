package world

import (
	"math/rand"

	"github.com/annel0/frozen-forest/internal/util"
	"github.com/annel0/frozen-forest/internal/vec"
)

const (
	// noiseScale масштаб шума в под-тайлах
	noiseScale = 0.15
	// randomFrameChance доля под-тайлов со случайным кадром поверх шума
	randomFrameChance = 0.3
)

// DecorationGenerator детерминированно генерирует землю открытого тайла
type DecorationGenerator struct {
	seed       int64
	noise      *util.Noise
	tileSize   float64
	subTiles   int
	frameCount int
}

// NewDecorationGenerator создаёт генератор декораций
func NewDecorationGenerator(seed int64, tileSize float64, subTiles, frameCount int) *DecorationGenerator {
	if subTiles <= 0 {
		subTiles = 1
	}
	if frameCount <= 0 {
		frameCount = 1
	}
	return &DecorationGenerator{
		seed:       seed,
		noise:      util.NewNoise(seed),
		tileSize:   tileSize,
		subTiles:   subTiles,
		frameCount: frameCount,
	}
}

// Generate возвращает subTiles² декораций для тайла c.
// Результат зависит только от сида мира и координаты.
func (g *DecorationGenerator) Generate(c vec.Vec2) []Decoration {
	// Для каждого тайла создаём свой генератор случайных чисел
	rng := rand.New(rand.NewSource(g.seed ^ coordHash(c)))

	subSize := g.tileSize / float64(g.subTiles)
	out := make([]Decoration, 0, g.subTiles*g.subTiles)

	for x := 0; x < g.subTiles; x++ {
		for y := 0; y < g.subTiles; y++ {
			globalX := float64(c.X*g.subTiles + x)
			globalY := float64(c.Y*g.subTiles + y)

			frame := int(g.noise.Noise2D(globalX*noiseScale, globalY*noiseScale) * float64(g.frameCount))
			if rng.Float64() < randomFrameChance {
				frame = rng.Intn(g.frameCount)
			}
			if frame >= g.frameCount {
				frame = g.frameCount - 1
			}

			out = append(out, Decoration{
				Offset: vec.Vec2Float{X: float64(x) * subSize, Y: float64(y) * subSize},
				Size:   subSize,
				Frame:  frame,
			})
		}
	}
	return out
}

func coordHash(c vec.Vec2) int64 {
	h := uint64(int64(c.X))*73856093 ^ uint64(int64(c.Y))*19349663
	return int64(h)
}
