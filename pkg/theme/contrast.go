package theme

import (
	"math"
	"strings"
)

// ContrastMin is the WCAG 2.x AA contrast ratio for normal text.
const ContrastMin = 4.5

// ContrastRatio returns the WCAG 2.x contrast ratio between two colors,
// from 1 (identical) to 21 (black on white). Colors are given as #rgb or
// #rrggbb hex strings; unparseable input yields the minimum ratio of 1 so
// that checks fail closed.
func ContrastRatio(a, b string) float64 {
	ca, okA := parseHexColor(a)
	cb, okB := parseHexColor(b)
	if !okA || !okB {
		return 1
	}
	la := relativeLuminance(ca)
	lb := relativeLuminance(cb)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// CheckContrast reports whether two colors meet WCAG AA contrast for
// normal-size text.
func CheckContrast(fg, bg string) bool {
	return ContrastRatio(fg, bg) >= ContrastMin
}

type rgb struct {
	r, g, b float64 // 0..1
}

// relativeLuminance implements the WCAG 2.x definition over sRGB channels.
func relativeLuminance(c rgb) float64 {
	return 0.2126*linearize(c.r) + 0.7152*linearize(c.g) + 0.0722*linearize(c.b)
}

func linearize(channel float64) float64 {
	if channel <= 0.03928 {
		return channel / 12.92
	}
	return math.Pow((channel+0.055)/1.055, 2.4)
}

// parseHexColor accepts #rgb and #rrggbb, case-insensitive.
func parseHexColor(s string) (rgb, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if !strings.HasPrefix(s, "#") {
		return rgb{}, false
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		r, okR := hexNibble(hex[0])
		g, okG := hexNibble(hex[1])
		b, okB := hexNibble(hex[2])
		if !okR || !okG || !okB {
			return rgb{}, false
		}
		return rgb{
			r: float64(r*16+r) / 255,
			g: float64(g*16+g) / 255,
			b: float64(b*16+b) / 255,
		}, true
	case 6:
		var channels [3]int
		for i := 0; i < 3; i++ {
			hi, okHi := hexNibble(hex[i*2])
			lo, okLo := hexNibble(hex[i*2+1])
			if !okHi || !okLo {
				return rgb{}, false
			}
			channels[i] = hi*16 + lo
		}
		return rgb{
			r: float64(channels[0]) / 255,
			g: float64(channels[1]) / 255,
			b: float64(channels[2]) / 255,
		}, true
	}
	return rgb{}, false
}

func hexNibble(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	}
	return 0, false
}
