package viz

import "strings"

const brailleBase = 0x2800

// Braille dot bits for a 2x4 cell, indexed [row][col].
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel grid: each cell holds 2x4 dots, so a canvas of
// w x h cells addresses 2w x 4h dots.
type Canvas struct {
	Width, Height int
	cells         []rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([]rune, w*h)}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = brailleBase
	}
}

// Set lights the dot at (x, y); out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
		return
	}
	c.cells[(y/4)*c.Width+x/2] |= dotBits[y%4][x%2]
}

// HLine lights dots from x0 to x1 inclusive on row y.
func (c *Canvas) HLine(x0, x1, y int) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		c.Set(x, y)
	}
}

func (c *Canvas) VLine(x, y0, y1 int) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.Set(x, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		b.WriteString(string(c.cells[row*c.Width : (row+1)*c.Width]))
		b.WriteByte('\n')
	}
	return b.String()
}

// DrawLanes draws the two wheels as bars of travel toward the goal, master
// on the top lane, with a goal marker at the right edge. Travel past the
// goal is clipped.
func (c *Canvas) DrawLanes(master, slave, goal float64) {
	c.Clear()
	dotsX := c.Width*2 - 1
	dotsY := c.Height * 4
	lane := dotsY / 2

	c.VLine(dotsX, 0, dotsY-1)

	for i, pos := range []float64{master, slave} {
		frac := 0.0
		if goal != 0 {
			frac = pos / goal
		}
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		end := int(frac * float64(dotsX-1))
		y0 := i*lane + 1
		for y := y0; y < y0+lane-2; y++ {
			c.HLine(0, end, y)
		}
	}
}
