package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		name     string
		hex      uint32
		expected Color
	}{
		{"white", 0xFFFFFF, Color{255, 255, 255}},
		{"black", 0x000000, Color{0, 0, 0}},
		{"earth", 0x2233FF, Color{0x22, 0x33, 0xFF}},
		{"sun", 0xFFE285, Color{0xFF, 0xE2, 0x85}},
		{"ignores high byte", 0xAA001E0F, Color{0x00, 0x1E, 0x0F}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ColorFromHex(tt.hex)
			assert.Equal(t, tt.expected, c)
			assert.Equal(t, tt.hex&0xFFFFFF, c.Hex())
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input    string
		expected Color
		wantErr  bool
	}{
		{"#ffffff", Color{255, 255, 255}, false},
		{"#1e5a99", Color{0x1E, 0x5A, 0x99}, false},
		{"1e5a99", Color{0x1E, 0x5A, 0x99}, false},
		{"#fff", Color{255, 255, 255}, false},
		{"#zzzzzz", Color{}, true},
		{"", Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

// The panel edits colors as strings, so every RGB value must survive the trip
func TestColorStringRoundTripIsLossless(t *testing.T) {
	for _, v := range []uint8{0, 1, 17, 127, 128, 200, 254, 255} {
		c := NewColor(v, 255-v, v/2)
		parsed, err := ParseColor(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed, "round trip of %s", c)

		assert.Equal(t, c, ColorFromColorful(c.Colorful()))
	}
}

func TestColorText(t *testing.T) {
	c := ColorFromHex(0x001E0F)
	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#001e0f", string(text))

	var back Color
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, c, back)
}
