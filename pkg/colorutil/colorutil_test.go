package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend(t *testing.T) {
	assert.Equal(t, Red, Blend(White, Red), "opaque replaces")
	assert.Equal(t, White, Blend(White, color.RGBA{}), "transparent keeps")

	half := Blend(Black, color.RGBA{R: 200, A: 128})
	assert.InDelta(t, 100, int(half.R), 1)
	assert.Equal(t, uint8(255), half.A)
}

func TestDarken(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 50, G: 100, B: 0, A: 255}, Darken(color.RGBA{R: 100, G: 200, A: 255}, 0.5))
}
