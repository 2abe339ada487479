package surface

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// PixelsConfig describes a framebuffer surface.
type PixelsConfig struct {
	Width      int
	Height     int
	Scale      int // integer glyph magnification
	Foreground color.RGBA
	Background color.RGBA
	Font       tinyfont.Fonter
}

// DefaultPixelsConfig matches a 240x135 TFT with green text on black.
func DefaultPixelsConfig() PixelsConfig {
	return PixelsConfig{
		Width:      240,
		Height:     135,
		Scale:      2,
		Foreground: color.RGBA{R: 0x00, G: 0xFF, B: 0x00, A: 0xFF},
		Background: color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
		Font:       &proggy.TinySZ8pt7b,
	}
}

// Pixels is an RGBA framebuffer. It implements drivers.Displayer so any
// tinyfont or tinygo drawing code can target it, and display.Surface so
// the scrolling controller can.
type Pixels struct {
	mu    sync.Mutex
	img   *image.RGBA
	cfg   PixelsConfig
	scale int16

	initialized bool
	presents    int
}

var _ drivers.Displayer = (*Pixels)(nil)

// NewPixels allocates a framebuffer.
func NewPixels(cfg PixelsConfig) (*Pixels, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > 0x7FFF || cfg.Height > 0x7FFF {
		return nil, errors.New("surface: framebuffer size out of range")
	}
	if cfg.Font == nil {
		return nil, errors.New("surface: font is required")
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	p := &Pixels{
		img:   image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		cfg:   cfg,
		scale: int16(cfg.Scale),
	}
	p.fill(cfg.Background)
	return p, nil
}

// Size implements drivers.Displayer.
func (p *Pixels) Size() (x, y int16) {
	return int16(p.cfg.Width), int16(p.cfg.Height)
}

// SetPixel implements drivers.Displayer.
func (p *Pixels) SetPixel(x, y int16, c color.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setPixel(x, y, c)
}

// setPixel writes one pixel; the caller holds p.mu.
func (p *Pixels) setPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || int(x) >= p.cfg.Width || int(y) >= p.cfg.Height {
		return
	}
	p.img.SetRGBA(int(x), int(y), c)
}

// Display implements drivers.Displayer. The buffer is always current, so
// this only counts presents.
func (p *Pixels) Display() error {
	p.mu.Lock()
	p.presents++
	p.mu.Unlock()
	return nil
}

// Init implements display.Surface.
func (p *Pixels) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fill(p.cfg.Background)
	p.initialized = true
	return nil
}

// Clear implements display.Surface.
func (p *Pixels) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fill(p.cfg.Background)
}

// DrawText implements display.Surface. y is the vertical middle of the
// text, x its left edge.
func (p *Pixels) DrawText(text string, x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := &scaled{base: p, ox: int16(x), oy: int16(y), k: p.scale}
	baseline := int16(p.cfg.Font.GetYAdvance() / 4)
	tinyfont.WriteLine(d, p.cfg.Font, 0, baseline, text, p.cfg.Foreground)
}

// WidthPx implements display.Surface.
func (p *Pixels) WidthPx() int { return p.cfg.Width }

// HeightPx implements display.Surface.
func (p *Pixels) HeightPx() int { return p.cfg.Height }

// Image returns a copy of the framebuffer.
func (p *Pixels) Image() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := image.NewRGBA(p.img.Rect)
	copy(out.Pix, p.img.Pix)
	return out
}

// Foreground returns the text color.
func (p *Pixels) Foreground() color.RGBA { return p.cfg.Foreground }

// Background returns the fill color.
func (p *Pixels) Background() color.RGBA { return p.cfg.Background }

func (p *Pixels) fill(c color.RGBA) {
	for i := 0; i+3 < len(p.img.Pix); i += 4 {
		p.img.Pix[i] = c.R
		p.img.Pix[i+1] = c.G
		p.img.Pix[i+2] = c.B
		p.img.Pix[i+3] = c.A
	}
}

// scaled magnifies glyph pixels by k around a device-space origin.
type scaled struct {
	base   *Pixels
	ox, oy int16
	k      int16
}

func (s *scaled) Size() (x, y int16) {
	w, h := s.base.Size()
	return w / s.k, h / s.k
}

func (s *scaled) SetPixel(x, y int16, c color.RGBA) {
	px := s.ox + x*s.k
	py := s.oy + y*s.k
	for dy := int16(0); dy < s.k; dy++ {
		for dx := int16(0); dx < s.k; dx++ {
			s.base.setPixel(px+dx, py+dy, c)
		}
	}
}

func (s *scaled) Display() error { return nil }
