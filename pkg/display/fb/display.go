// Package fb renders the block screens onto any drivers.Displayer.
package fb

import (
	"errors"
	"image/color"
	"sync"

	"github.com/golang/glog"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// Palette of the menu screens.
var (
	Background     = color.RGBA{A: 0xff}
	TextBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	TitleColor     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	NormalColor    = color.RGBA{R: 0x87, G: 0xCE, B: 0xFA, A: 0xff}
	HighlightColor = color.RGBA{R: 0xff, A: 0xff}
	EditingColor   = color.RGBA{R: 0xff, G: 0xd7, A: 0xff}
)

// ErrForeignSurface is returned when loading a surface built by another
// display.
var ErrForeignSurface = errors.New("fb: surface not created by this display")

const (
	margin     = 4
	cellGap    = 2
	editMarker = "> "
)

type face struct {
	font   tinyfont.Fonter
	height int16
}

var faces = []face{
	{font: &proggy.TinySZ8pt7b, height: 14},
	{font: &freemono.Regular9pt7b, height: 18},
	{font: &freemono.Regular12pt7b, height: 24},
	{font: &freemono.Regular18pt7b, height: 34},
}

func faceOf(size int) face {
	switch {
	case size <= 1:
		return faces[0]
	case size > len(faces):
		return faces[len(faces)-1]
	}
	return faces[size-1]
}

type surface interface {
	hw.Surface
	owner() *Display
	draw(t drivers.Displayer)
}

// Display implements hw.Display. It is safe for concurrent use; the
// loaded surface is redrawn whenever it changes.
type Display struct {
	Target drivers.Displayer

	lock    sync.Mutex
	current surface
}

// New creates a Display drawing on target.
func New(target drivers.Displayer) *Display {
	return &Display{Target: target}
}

// LoadScreen implements hw.Display.
func (d *Display) LoadScreen(s hw.Surface) error {
	sf, ok := s.(surface)
	if !ok || sf.owner() != d {
		return ErrForeignSurface
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.current = sf
	return d.redraw()
}

// Current returns the loaded surface.
func (d *Display) Current() hw.Surface {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.current == nil {
		return nil
	}
	return d.current
}

// TextScreen implements hw.Display. Text screens are drawn on
// TextBackground. A negative x or y centers the text.
func (d *Display) TextScreen(text string, x, y, size int, c color.RGBA) hw.Surface {
	return &textScreen{display: d, text: text, x: x, y: y, face: faceOf(size), color: c}
}

// ListScreen implements hw.Display.
func (d *Display) ListScreen(title string, rows []string) hw.ItemList {
	return &listScreen{
		display: d,
		title:   title,
		rows:    append([]string(nil), rows...),
		editing: make([]bool, len(rows)),
		current: -1,
	}
}

// MatrixScreen implements hw.Display.
func (d *Display) MatrixScreen(m hw.Matrix, bright, dark color.RGBA) hw.Surface {
	return &matrixScreen{display: d, matrix: m, bright: bright, dark: dark}
}

// redraw must be called with the lock held.
func (d *Display) redraw() error {
	w, h := d.Target.Size()
	fill(d.Target, 0, 0, w, h, Background)
	d.current.draw(d.Target)
	return d.Target.Display()
}

// update runs fn under the lock and redraws if s is on screen.
func (d *Display) update(s surface, fn func() bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if fn() && d.current == s {
		if err := d.redraw(); err != nil {
			glog.Errorf("fb: redraw %q: %v", s.Title(), err)
		}
	}
}

func fill(t drivers.Displayer, x, y, w, h int16, c color.RGBA) {
	sw, sh := t.Size()
	for j := y; j < y+h && j < sh; j++ {
		for i := x; i < x+w && i < sw; i++ {
			t.SetPixel(i, j, c)
		}
	}
}

func textWidth(f face, text string) int16 {
	_, w := tinyfont.LineWidth(f.font, text)
	return int16(w)
}

type textScreen struct {
	display *Display
	text    string
	x, y    int
	face    face
	color   color.RGBA
}

func (s *textScreen) Title() string { return s.text }
func (s *textScreen) owner() *Display { return s.display }

func (s *textScreen) draw(t drivers.Displayer) {
	w, h := t.Size()
	fill(t, 0, 0, w, h, TextBackground)
	x, y := int16(s.x), int16(s.y)
	if s.x < 0 {
		x = (w - textWidth(s.face, s.text)) / 2
	}
	if s.y < 0 {
		y = (h - s.face.height) / 2
	}
	tinyfont.WriteLine(t, s.face.font, x, y+s.face.height, s.text, s.color)
}

type listScreen struct {
	display *Display
	title   string
	rows    []string
	editing []bool
	current int
}

func (s *listScreen) Title() string { return s.title }
func (s *listScreen) owner() *Display { return s.display }

func (s *listScreen) SetRow(i int, text string, editing bool) {
	s.display.update(s, func() bool {
		if i < 0 || i >= len(s.rows) {
			return false
		}
		changed := s.rows[i] != text || s.editing[i] != editing
		s.rows[i], s.editing[i] = text, editing
		return changed
	})
}

func (s *listScreen) Highlight(i int) {
	s.display.update(s, func() bool {
		if s.current == i {
			return false
		}
		s.current = i
		return true
	})
}

func (s *listScreen) draw(t drivers.Displayer) {
	f := faces[0]
	y := int16(margin)
	if s.title != "" {
		tinyfont.WriteLine(t, f.font, margin, y+f.height, s.title, TitleColor)
		y += f.height + margin
	}
	for i, row := range s.rows {
		c := NormalColor
		if i == s.current {
			c = HighlightColor
		}
		if s.editing[i] {
			c, row = EditingColor, editMarker+row
		}
		tinyfont.WriteLine(t, f.font, margin, y+f.height, row, c)
		y += f.height
	}
}

type matrixScreen struct {
	display *Display
	matrix  hw.Matrix
	bright  color.RGBA
	dark    color.RGBA
}

func (s *matrixScreen) Title() string { return "matrix" }
func (s *matrixScreen) owner() *Display { return s.display }

// cellRect returns the square of one dot, centered on the screen.
func cellRect(t drivers.Displayer, r, c int) (x, y, size int16) {
	w, h := t.Size()
	side := w
	if h < side {
		side = h
	}
	size = (side-2*margin)/hw.MatrixSize - cellGap
	total := (size + cellGap) * hw.MatrixSize
	x = (w-total)/2 + int16(c)*(size+cellGap)
	y = (h-total)/2 + int16(r)*(size+cellGap)
	return
}

func (s *matrixScreen) draw(t drivers.Displayer) {
	for r := 0; r < hw.MatrixSize; r++ {
		for c := 0; c < hw.MatrixSize; c++ {
			col := s.dark
			if s.matrix[r][c] {
				col = s.bright
			}
			x, y, size := cellRect(t, r, c)
			fill(t, x, y, size, size, col)
		}
	}
}
