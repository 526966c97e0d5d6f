package sim

import (
	"strings"

	"github.com/aquilax/go-perlin"
)

// Пороги высоты шума для генерации
const (
	WaterMax = 0.30 // Ниже - вода
	LavaMax  = 0.33 // Ниже - лава у берега
	WallMin  = 0.78 // Выше - стены
)

// Generator строит случайные уровни по шуму Перлина
type Generator struct {
	Seed       int64   // Сид шума
	NoiseScale float64 // Масштаб шума высоты
	Terraces   int     // Число уровней высоты пола

	noise *perlin.Perlin
}

// NewGenerator создаёт генератор уровней
func NewGenerator(seed int64) *Generator {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Generator{
		Seed:       seed,
		NoiseScale: 0.15,
		Terraces:   4,
		noise:      perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// height значение шума в клетке в диапазоне от 0 до 1
func (g *Generator) height(col, row int) float64 {
	v := g.noise.Noise2D(float64(col)*g.NoiseScale, float64(row)*g.NoiseScale)
	return (v + 1.0) / 2.0
}

// GenerateMap возвращает ASCII-карту в формате ParseLevel. Края карты
// всегда стены, старт ставится в ближайшую к левому верхнему углу клетку
// пола, цель в ближайшую к правому нижнему.
func (g *Generator) GenerateMap(width, height int) string {
	rows := make([][]byte, height)
	for row := range rows {
		rows[row] = make([]byte, width)
		for col := range rows[row] {
			rows[row][col] = g.cellChar(col, row, width, height)
		}
	}

	placeMarker(rows, 'S', func(col, row int) int { return col + row })
	placeMarker(rows, 'G', func(col, row int) int { return (width - col) + (height - row) })

	var sb strings.Builder
	for _, row := range rows {
		sb.Write(row)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (g *Generator) cellChar(col, row, width, height int) byte {
	if col == 0 || row == 0 || col == width-1 || row == height-1 {
		return '#'
	}
	h := g.height(col, row)
	switch {
	case h < WaterMax:
		return '~'
	case h < LavaMax:
		return '!'
	case h >= WallMin:
		return '#'
	}
	// Ступени по HeightStep; соседние террасы проходимы шагом или прыжком
	level := int((h - LavaMax) / (WallMin - LavaMax) * float64(g.Terraces))
	if level <= 0 {
		return '.'
	}
	return byte('0' + min(level, 9))
}

// placeMarker ставит маркер на клетку пола с наименьшим весом
func placeMarker(rows [][]byte, marker byte, weight func(col, row int) int) {
	bestCol, bestRow, best := -1, -1, 0
	for row := range rows {
		for col, ch := range rows[row] {
			if ch != '.' && (ch < '1' || ch > '9') {
				continue
			}
			if w := weight(col, row); bestCol < 0 || w < best {
				bestCol, bestRow, best = col, row, w
			}
		}
	}
	if bestCol < 0 {
		// Карта без пола: пробиваем клетку рядом с углом
		bestCol, bestRow = 1, 1
		if marker == 'G' {
			bestCol, bestRow = len(rows[0])-2, len(rows)-2
		}
	}
	rows[bestRow][bestCol] = marker
}

// GenerateLevel генерирует и разбирает уровень
func (g *Generator) GenerateLevel(width, height int) (*Level, error) {
	return ParseLevel(strings.NewReader(g.GenerateMap(width, height)))
}
