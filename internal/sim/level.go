// Package sim эталонный мир для прогона планировщика: клеточный уровень из
// ASCII-карты, его навигационный граф, мир столкновений и простой
// детерминированный физический движок в духе Quake.
package sim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/physics"
	"github.com/annel0/botplanner/internal/vec"
)

// ErrBadMap карта не может быть разобрана
var ErrBadMap = errors.New("sim: некорректная карта")

// Геометрия уровня
const (
	CellSize    = 64.0
	HeightStep  = 16.0
	AreaHeight  = 128.0
	LiquidDepth = 64.0
	LavaDepth   = 32.0
	PadHeight   = 16.0
)

// CellKind тип клетки карты
type CellKind uint8

const (
	CellWall CellKind = iota
	CellFloor
	CellWater
	CellLava
	CellDisabled
	CellJumppad
)

// Cell клетка карты
type Cell struct {
	Kind CellKind
	// Floor высота твёрдого пола
	Floor float64
	// Surface уровень поверхности жидкости, для прочих клеток совпадает с Floor
	Surface float64
	AreaNum int
}

// IsSolid стена ли это
func (c *Cell) IsSolid() bool { return c.Kind == CellWall }

// IsLiquid заполнена ли клетка жидкостью
func (c *Cell) IsLiquid() bool { return c.Kind == CellWater || c.Kind == CellLava }

type levelArea struct {
	area      aas.Area
	settings  aas.AreaSettings
	col, row  int
	floorClus int
}

// Level клеточный уровень
type Level struct {
	Width  int
	Height int

	cells   []Cell
	areas   []levelArea
	reaches []aas.Reachability
	// reachFrom область-источник каждого ребра
	reachFrom []int
	incoming  [][]int
	jumppads  []collision.TriggerEntity
	spawn     vec.Vec3Float
	goal      vec.Vec3Float
	hasGoal   bool
}

type padDef struct {
	col, row   int
	tcol, trow int
	line       int
}

// ParseLevel читает карту. Символы: '#' стена, '.' пол, '1'-'9' пол на
// высоте n*16, '~' вода, '!' лава, 'x' отключённая область, 'J' jumppad,
// 'S' старт, 'G' цель. Строки вида "@jumppad col row tcol trow" задают
// цели jumppad, строки с '//' комментарии.
func ParseLevel(r io.Reader) (*Level, error) {
	var grid []string
	var pads []padDef
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		switch {
		case line == "" || strings.HasPrefix(line, "//"):
			continue
		case strings.HasPrefix(line, "@"):
			pad, err := parseDirective(line, lineNum)
			if err != nil {
				return nil, err
			}
			pads = append(pads, pad)
		default:
			grid = append(grid, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sim: чтение карты: %w", err)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: пустая карта", ErrBadMap)
	}

	width := len(grid[0])
	for i, row := range grid {
		if len(row) != width {
			return nil, fmt.Errorf("%w: строка %d имеет длину %d, ожидалось %d", ErrBadMap, i, len(row), width)
		}
	}

	l := &Level{Width: width, Height: len(grid), cells: make([]Cell, width*len(grid))}
	hasSpawn := false
	for row, line := range grid {
		for col, ch := range line {
			cell := &l.cells[row*width+col]
			switch {
			case ch == '#':
				cell.Kind = CellWall
			case ch == '.' || ch == 'S' || ch == 'G':
				cell.Kind = CellFloor
			case ch >= '1' && ch <= '9':
				cell.Kind = CellFloor
				cell.Floor = float64(ch-'0') * HeightStep
			case ch == '~':
				cell.Kind = CellWater
				cell.Floor = -LiquidDepth
			case ch == '!':
				cell.Kind = CellLava
				cell.Floor = -LavaDepth
			case ch == 'x':
				cell.Kind = CellDisabled
			case ch == 'J':
				cell.Kind = CellJumppad
			default:
				return nil, fmt.Errorf("%w: неизвестный символ %q в (%d, %d)", ErrBadMap, ch, col, row)
			}
			if cell.IsLiquid() {
				cell.Surface = 0
			} else {
				cell.Surface = cell.Floor
			}
			switch ch {
			case 'S':
				l.spawn = l.CellCenter(col, row)
				hasSpawn = true
			case 'G':
				l.goal = l.CellCenter(col, row)
				l.hasGoal = true
			}
		}
	}
	if !hasSpawn {
		return nil, fmt.Errorf("%w: нет точки старта 'S'", ErrBadMap)
	}

	l.buildAreas()
	if err := l.buildJumppads(pads); err != nil {
		return nil, err
	}
	l.buildReachabilities()
	l.buildFloorClusters()
	return l, nil
}

func parseDirective(line string, lineNum int) (padDef, error) {
	fields := strings.Fields(line)
	if fields[0] != "@jumppad" || len(fields) != 5 {
		return padDef{}, fmt.Errorf("%w: строка %d: ожидалось \"@jumppad col row tcol trow\"", ErrBadMap, lineNum)
	}
	var nums [4]int
	for i := range nums {
		n, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return padDef{}, fmt.Errorf("%w: строка %d: %v", ErrBadMap, lineNum, err)
		}
		nums[i] = n
	}
	return padDef{col: nums[0], row: nums[1], tcol: nums[2], trow: nums[3], line: lineNum}, nil
}

// Cell клетка по координатам; за пределами карты nil
func (l *Level) Cell(col, row int) *Cell {
	if col < 0 || row < 0 || col >= l.Width || row >= l.Height {
		return nil
	}
	return &l.cells[row*l.Width+col]
}

// CellAt клетка, содержащая точку
func (l *Level) CellAt(p vec.Vec3Float) (*Cell, int, int) {
	c := vec.CellOf(p.X, p.Y, CellSize)
	return l.Cell(c.X, c.Y), c.X, c.Y
}

// CellCenter точка, где стоит игрок в центре клетки
func (l *Level) CellCenter(col, row int) vec.Vec3Float {
	floor := 0.0
	if cell := l.Cell(col, row); cell != nil {
		floor = cell.Surface
	}
	return vec.Vec3Float{
		X: (float64(col) + 0.5) * CellSize,
		Y: (float64(row) + 0.5) * CellSize,
		Z: floor + PlayerStandHeight,
	}
}

// Spawn точка старта
func (l *Level) Spawn() vec.Vec3Float { return l.spawn }

// Goal точка цели, если задана
func (l *Level) Goal() (vec.Vec3Float, bool) { return l.goal, l.hasGoal }

// Jumppads триггеры jumppad уровня
func (l *Level) Jumppads() []collision.TriggerEntity { return l.jumppads }

// Entities кеш классифицированных триггеров для планировщика
func (l *Level) Entities() *collision.EntitiesCache {
	cache := collision.NewEntitiesCache()
	cache.Rebuild(l.jumppads)
	return cache
}

func (l *Level) buildAreas() {
	for row := 0; row < l.Height; row++ {
		for col := 0; col < l.Width; col++ {
			cell := l.Cell(col, row)
			if cell.IsSolid() {
				continue
			}
			mins := vec.Vec3Float{X: float64(col) * CellSize, Y: float64(row) * CellSize, Z: cell.Floor}
			maxs := vec.Vec3Float{X: mins.X + CellSize, Y: mins.Y + CellSize, Z: cell.Surface + AreaHeight}
			settings := aas.AreaSettings{}
			switch cell.Kind {
			case CellFloor:
				settings.Flags = aas.AreaGrounded
			case CellDisabled:
				settings.Flags = aas.AreaGrounded | aas.AreaDisabled
			case CellJumppad:
				settings.Flags = aas.AreaGrounded
				settings.Contents = aas.ContentsJumppad
			case CellWater:
				settings.Flags = aas.AreaLiquid
				settings.Contents = aas.ContentsWater
			case CellLava:
				settings.Flags = aas.AreaLiquid
				settings.Contents = aas.ContentsLava
			}
			l.areas = append(l.areas, levelArea{
				area:     aas.Area{Mins: mins, Maxs: maxs, Center: l.CellCenter(col, row)},
				settings: settings,
				col:      col,
				row:      row,
			})
			cell.AreaNum = len(l.areas)
		}
	}
	for i := range l.areas {
		a := &l.areas[i]
		cell := l.Cell(a.col, a.row)
		if cell.Kind == CellWater || cell.Kind == CellLava {
			continue
		}
		for _, d := range vec.Neighbors4 {
			n := l.Cell(a.col+d.X, a.row+d.Y)
			if n != nil && !n.IsSolid() && cell.Floor-n.Surface > 3*HeightStep {
				a.settings.Flags |= aas.AreaLedge
				break
			}
		}
	}
}

func (l *Level) buildJumppads(pads []padDef) error {
	for i, pad := range pads {
		cell := l.Cell(pad.col, pad.row)
		if cell == nil || cell.Kind != CellJumppad {
			return fmt.Errorf("%w: строка %d: в (%d, %d) нет jumppad", ErrBadMap, pad.line, pad.col, pad.row)
		}
		target := l.Cell(pad.tcol, pad.trow)
		if target == nil || target.IsSolid() {
			return fmt.Errorf("%w: строка %d: цель (%d, %d) недоступна", ErrBadMap, pad.line, pad.tcol, pad.trow)
		}
		mins := vec.Vec3Float{X: float64(pad.col) * CellSize, Y: float64(pad.row) * CellSize, Z: cell.Floor}
		maxs := vec.Vec3Float{X: mins.X + CellSize, Y: mins.Y + CellSize, Z: cell.Floor + PadHeight}
		l.jumppads = append(l.jumppads, collision.TriggerEntity{
			Num:    1000 + i,
			Kind:   collision.TriggerJumppad,
			Bounds: physics.NewAABB(mins, maxs),
			Target: l.CellCenter(pad.tcol, pad.trow),
		})
	}
	return nil
}

// jumppadAt jumppad, расположенный в клетке
func (l *Level) jumppadAt(col, row int) (collision.TriggerEntity, bool) {
	center := vec.Vec3Float{X: (float64(col) + 0.5) * CellSize, Y: (float64(row) + 0.5) * CellSize}
	for _, pad := range l.jumppads {
		if center.X >= pad.Bounds.Mins.X && center.X <= pad.Bounds.Maxs.X &&
			center.Y >= pad.Bounds.Mins.Y && center.Y <= pad.Bounds.Maxs.Y {
			return pad, true
		}
	}
	return collision.TriggerEntity{}, false
}
