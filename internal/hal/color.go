package hal

import (
	"fmt"
	"strconv"
	"strings"
)

var namedColors = map[string]Color{
	"white":  White,
	"red":    {R: 255},
	"green":  {G: 255},
	"blue":   {B: 255},
	"yellow": {R: 255, G: 255},
	"cyan":   {G: 255, B: 255},
	"purple": {R: 255, B: 255},
	"orange": {R: 255, G: 128},
	"warm":   {R: 255, G: 170, B: 80},
}

// ParseColor accepts "#rrggbb", "rrggbb" or a colour name.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats c as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
