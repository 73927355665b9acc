package viz

import (
	"strings"
)

// Dot bits within a braille cell, indexed [y%4][x%2].
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// blank is the empty braille cell.
const blank rune = 0x2800

// Canvas is a grid of braille cells addressed in dots: Width*2 dots
// across and Height*4 down.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// dot returns the cell holding dot (x, y) and the dot's bit, or nil when
// the dot is off the canvas.
func (c *Canvas) dot(x, y int) (*rune, rune) {
	if x < 0 || y < 0 {
		return nil, 0
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return nil, 0
	}
	return &c.Grid[row][col], rune(pixelMap[y%4][x%2])
}

// Set lights dot (x, y). Dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if cell, bit := c.dot(x, y); cell != nil {
		*cell |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if cell, bit := c.dot(x, y); cell != nil {
		*cell &^= bit
	}
}

// Get reports whether dot (x, y) is lit.
func (c *Canvas) Get(x, y int) bool {
	cell, bit := c.dot(x, y)
	return cell != nil && *cell&bit != 0
}

// DrawFrame lights one dot per non-black pixel of an RGBA8 frame. stride
// is the number of pixels per frame row, and each pixel (px, py) lands on
// dot (px*sx, py*sy).
func (c *Canvas) DrawFrame(frame []byte, stride int, sx, sy float64) {
	if stride <= 0 {
		return
	}
	for i := 0; i+3 < len(frame); i += 4 {
		if frame[i]|frame[i+1]|frame[i+2] == 0 {
			continue
		}
		k := i / 4
		px, py := k%stride, k/stride
		c.Set(int(float64(px)*sx), int(float64(py)*sy))
	}
}

// DrawBorder outlines the whole canvas.
func (c *Canvas) DrawBorder() {
	w, h := c.Width*2-1, c.Height*4-1
	c.DrawLine(0, 0, w, 0)
	c.DrawLine(0, h, w, h)
	c.DrawLine(0, 0, 0, h)
	c.DrawLine(w, 0, w, h)
}

func (c *Canvas) Clear() {
	for _, row := range c.Grid {
		for j := range row {
			row[j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
