package sim

import (
	"image"
	"image/color"
	"sync"
)

// Default screen size of the block.
const (
	ScreenWidth  = 240
	ScreenHeight = 320
)

// Framebuffer is an in-memory screen implementing drivers.Displayer.
type Framebuffer struct {
	lock   sync.Mutex
	img    *image.RGBA
	frames int
}

// NewFramebuffer creates a Framebuffer of the given size.
func NewFramebuffer(w, h int) *Framebuffer {
	return &Framebuffer{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Size implements drivers.Displayer.
func (f *Framebuffer) Size() (x, y int16) {
	b := f.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

// SetPixel implements drivers.Displayer.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	f.lock.Lock()
	f.img.SetRGBA(int(x), int(y), c)
	f.lock.Unlock()
}

// Display implements drivers.Displayer.
func (f *Framebuffer) Display() error {
	f.lock.Lock()
	f.frames++
	f.lock.Unlock()
	return nil
}

// Frames returns how many times the buffer was flushed.
func (f *Framebuffer) Frames() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.frames
}

// At returns the color of a pixel.
func (f *Framebuffer) At(x, y int) color.RGBA {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.img.RGBAAt(x, y)
}

// Snapshot copies the current screen.
func (f *Framebuffer) Snapshot() *image.RGBA {
	f.lock.Lock()
	defer f.lock.Unlock()
	img := image.NewRGBA(f.img.Bounds())
	copy(img.Pix, f.img.Pix)
	return img
}
