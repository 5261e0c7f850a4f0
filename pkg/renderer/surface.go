package renderer

import (
	"image"
	"image/draw"
	"sync"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Surface is the drawable image a scene renders into. Presenters are
// called on the rendering goroutine after every finished frame.
type Surface struct {
	mu         sync.Mutex
	img        *image.RGBA
	presenters []func(*image.RGBA)
}

// NewSurface creates a surface of the given size
func NewSurface(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image returns the current backing image
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Size returns the surface size in pixels
func (s *Surface) Size() (width, height int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize replaces the backing image
func (s *Surface) Resize(width, height int) {
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Clear fills the surface with c
func (s *Surface) Clear(c core.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
}

// OnPresent registers fn to receive every presented frame. The image is
// only valid for the duration of the call.
func (s *Surface) OnPresent(fn func(*image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presenters = append(s.presenters, fn)
}

// Present hands the finished frame to every presenter
func (s *Surface) Present() {
	s.mu.Lock()
	presenters := append([]func(*image.RGBA){}, s.presenters...)
	s.mu.Unlock()
	for _, fn := range presenters {
		fn(s.img)
	}
}

// Snapshot returns a copy of the current image
func (s *Surface) Snapshot() *image.RGBA {
	cp := image.NewRGBA(s.img.Bounds())
	copy(cp.Pix, s.img.Pix)
	return cp
}

// Host receives the surface a scene draws into
type Host interface {
	Mount(*Surface)
}

// HostFunc adapts a function to the Host interface
type HostFunc func(*Surface)

// Mount implements Host
func (f HostFunc) Mount(s *Surface) { f(s) }
