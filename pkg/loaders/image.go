package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"math"
	"os"

	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Texture is a decoded image with repeat-wrapped sampling
type Texture struct {
	Width  int
	Height int
	Format string
	Pixels []core.Color // Row-major, top row first
}

// AssetKind implements Asset
func (t *Texture) AssetKind() Kind { return KindTexture }

// LoadImage loads a PNG, JPEG or WebP image from disk
func LoadImage(filename string) (*Texture, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()
	return DecodeTexture(file)
}

// DecodeTexture decodes an image stream, detecting the format from its header
func DecodeTexture(r io.Reader) (*Texture, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty %s image", format)
	}
	pixels := make([]core.Color, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			pixels[y*width+x] = core.NewColor(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}

	return &Texture{Width: width, Height: height, Format: format, Pixels: pixels}, nil
}

// At returns the pixel at x, y wrapped into the image
func (t *Texture) At(x, y int) core.Color {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	y %= t.Height
	if y < 0 {
		y += t.Height
	}
	return t.Pixels[y*t.Width+x]
}

// Sample returns the nearest pixel at texture coordinates u, v, repeating
// outside [0,1). v = 0 is the bottom row.
func (t *Texture) Sample(u, v float64) core.Color {
	u -= math.Floor(u)
	v -= math.Floor(v)
	x := int(u * float64(t.Width))
	y := t.Height - 1 - int(v*float64(t.Height))
	return t.At(x, y)
}
