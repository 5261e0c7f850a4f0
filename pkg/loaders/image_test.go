package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// encodeQuadPNG encodes a 2x2 image: white red / green blue
func encodeQuadPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{G: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var (
	white = core.NewColor(255, 255, 255)
	red   = core.NewColor(255, 0, 0)
	green = core.NewColor(0, 255, 0)
	blue  = core.NewColor(0, 0, 255)
)

func TestDecodeTexture(t *testing.T) {
	tex, err := DecodeTexture(bytes.NewReader(encodeQuadPNG(t)))
	require.NoError(t, err)

	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 2, tex.Height)
	assert.Equal(t, "png", tex.Format)
	assert.Equal(t, []core.Color{white, red, green, blue}, tex.Pixels)
	assert.Equal(t, KindTexture, tex.AssetKind())
}

func TestTextureWraps(t *testing.T) {
	tex, err := DecodeTexture(bytes.NewReader(encodeQuadPNG(t)))
	require.NoError(t, err)

	assert.Equal(t, white, tex.At(0, 0))
	assert.Equal(t, white, tex.At(2, 2))
	assert.Equal(t, blue, tex.At(-1, -1))

	// v = 0 is the bottom row
	assert.Equal(t, green, tex.Sample(0.25, 0.25))
	assert.Equal(t, red, tex.Sample(0.75, 0.75))
	assert.Equal(t, red, tex.Sample(1.75, -0.25))
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.png")
	require.NoError(t, os.WriteFile(path, encodeQuadPNG(t), 0o644))

	tex, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 4, len(tex.Pixels))

	_, err = DecodeTexture(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
