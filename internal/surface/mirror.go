package surface

import (
	"errors"

	"github.com/verte-zerg/cwkeyer/internal/display"
)

// Mirror draws on several surfaces at once. Dimensions come from the first.
type Mirror struct {
	surfaces []display.Surface
}

var _ display.Surface = (*Mirror)(nil)

// NewMirror returns a surface that forwards every call to primary and rest.
func NewMirror(primary display.Surface, rest ...display.Surface) *Mirror {
	all := append([]display.Surface{primary}, rest...)
	return &Mirror{surfaces: all}
}

// Init initialises every surface and reports all failures.
func (m *Mirror) Init() error {
	var errs []error
	for _, s := range m.surfaces {
		if err := s.Init(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Mirror) Clear() {
	for _, s := range m.surfaces {
		s.Clear()
	}
}

func (m *Mirror) DrawText(text string, x, y int) {
	for _, s := range m.surfaces {
		s.DrawText(text, x, y)
	}
}

func (m *Mirror) WidthPx() int  { return m.surfaces[0].WidthPx() }
func (m *Mirror) HeightPx() int { return m.surfaces[0].HeightPx() }
