// internal/pages/color.go
package pages

import (
	"fmt"
	"strconv"
	"strings"
)

// Transparent is what NormalizeColor returns for fully transparent colors. It
// never equals an opaque #rrggbb value.
const Transparent = "transparent"

// namedColors holds the sixteen CSS basic color keywords plus orange. Other
// keywords are rejected; browsers report computed colors in rgb() form, so
// only configured resting values use these.
var namedColors = map[string]string{
	"black":   "#000000",
	"silver":  "#c0c0c0",
	"gray":    "#808080",
	"grey":    "#808080",
	"white":   "#ffffff",
	"maroon":  "#800000",
	"red":     "#ff0000",
	"purple":  "#800080",
	"fuchsia": "#ff00ff",
	"green":   "#008000",
	"lime":    "#00ff00",
	"olive":   "#808000",
	"yellow":  "#ffff00",
	"navy":    "#000080",
	"blue":    "#0000ff",
	"teal":    "#008080",
	"aqua":    "#00ffff",
	"orange":  "#ffa500",
}

// NormalizeColor converts a CSS color as browsers report it (rgb, rgba, #rgb,
// #rrggbb and the keywords above) to lowercase #rrggbb. Alpha is dropped,
// except that a fully transparent color becomes Transparent.
func NormalizeColor(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == Transparent {
		return Transparent, nil
	}
	if hex, ok := namedColors[v]; ok {
		return hex, nil
	}

	if strings.HasPrefix(v, "#") {
		digits := v[1:]
		if _, err := strconv.ParseUint(digits, 16, 32); err != nil {
			return "", fmt.Errorf("unsupported color %q", value)
		}
		switch len(digits) {
		case 3:
			digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
		case 4:
			if digits[3] == '0' {
				return Transparent, nil
			}
			digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
		case 6:
		case 8:
			if digits[6:] == "00" {
				return Transparent, nil
			}
			digits = digits[:6]
		default:
			return "", fmt.Errorf("unsupported color %q", value)
		}
		return "#" + digits, nil
	}

	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return "", fmt.Errorf("unsupported color %q", value)
	}
	fn := v[:open]
	if fn != "rgb" && fn != "rgba" {
		return "", fmt.Errorf("unsupported color %q", value)
	}
	// Both the legacy comma form and the space/slash form are accepted.
	args := strings.FieldsFunc(v[open+1:len(v)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(args) < 3 {
		return "", fmt.Errorf("unsupported color %q", value)
	}

	if len(args) > 3 {
		alpha, err := alphaChannel(args[3])
		if err != nil {
			return "", fmt.Errorf("unsupported color %q: %w", value, err)
		}
		if alpha == 0 {
			return Transparent, nil
		}
	}

	var out strings.Builder
	out.WriteByte('#')
	for _, a := range args[:3] {
		n, err := channel(a)
		if err != nil {
			return "", fmt.Errorf("unsupported color %q: %w", value, err)
		}
		fmt.Fprintf(&out, "%02x", n)
	}
	return out.String(), nil
}

func channel(s string) (int, error) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clamp(int(f*255/100 + 0.5)), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return clamp(int(f + 0.5)), nil
}

func alphaChannel(s string) (float64, error) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return f / 100, err
	}
	return strconv.ParseFloat(s, 64)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
