package nonstop

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/colornames"
)

var paramMismatchError = errors.New("param mismatch")

// ParseStop decodes the offset, stop-color and stop-opacity of a stop node,
// given either as attributes or inside its style attribute. Stops are copied
// as they are whatever this reports; it is only used to describe them.
func ParseStop(n Node) (rasterx.GradStop, error) {
	stop := rasterx.GradStop{StopColor: color.Black, Opacity: 1.0}
	for _, name := range []string{"offset", "stop-color", "stop-opacity"} {
		if v, ok := n.Attr(name); ok {
			if err := ParseStopAttr(&stop, name, v); err != nil {
				return stop, err
			}
		}
	}
	if style, ok := n.Attr("style"); ok {
		for _, pair := range strings.Split(style, ";") {
			kv := strings.SplitN(pair, ":", 2)
			if len(kv) != 2 {
				continue
			}
			err := ParseStopAttr(&stop, strings.ToLower(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1]))
			if err != nil {
				return stop, err
			}
		}
	}
	return stop, nil
}

// ParseStopAttr sets the stop field named by attribute name. Other names are
// ignored.
func ParseStopAttr(stop *rasterx.GradStop, name, value string) (err error) {
	if stop == nil {
		return nil
	}
	switch name {
	case "offset":
		stop.Offset, err = readFraction(value)
	case "stop-color":
		var c color.Color
		c, err = ParseSVGColor(value)
		if c != nil {
			stop.StopColor = c
		}
	case "stop-opacity":
		stop.Opacity, err = strconv.ParseFloat(strings.TrimSpace(value), 64)
	}
	if err != nil {
		return fmt.Errorf("%s %q: %w", name, value, err)
	}
	return nil
}

// ParseSVGColorNum decodes a hex color of the form #rgb or #rrggbb, the
// short form standing for each digit doubled.
func ParseSVGColorNum(colorStr string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(colorStr, "#")
	if len(hex) == 3 {
		hex = strings.Repeat(hex[0:1], 2) + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2)
	}
	if len(hex) != 6 {
		return 0, 0, 0, paramMismatchError
	}
	rgb, err := strconv.ParseUint(hex, 16, 24)
	if err != nil {
		return 0, 0, 0, err
	}
	return uint8(rgb >> 16), uint8(rgb >> 8), uint8(rgb), nil
}

// ParseSVGColor decodes a stop color: an SVG 1.1 color name, hex, rgb() or
// hsl(). "none" yields a nil color and no error.
func ParseSVGColor(colorStr string) (color.Color, error) {
	colorStr = strings.TrimSpace(colorStr)
	v := strings.ToLower(colorStr)
	switch v {
	case "":
		return nil, paramMismatchError
	case "none":
		return nil, nil
	case "currentcolor", "inherit":
		return color.Black, nil
	default:
		cn, ok := colornames.Map[v]
		if ok {
			r, g, b, a := cn.RGBA()
			return color.NRGBA{uint8(r), uint8(g), uint8(b), uint8(a)}, nil
		}
	}
	if strings.HasPrefix(v, "hsl(") && strings.HasSuffix(v, ")") {
		return parseHSL(v[4 : len(v)-1])
	}
	cStr := strings.TrimPrefix(v, "rgb(")
	if cStr != v {
		cStr := strings.TrimSuffix(cStr, ")")
		vals := strings.Split(cStr, ",")
		if len(vals) != 3 {
			return nil, paramMismatchError
		}
		var cvals [3]uint8
		var err error
		for i := range cvals {
			cvals[i], err = parseColorValue(vals[i])
			if err != nil {
				return nil, err
			}
		}
		return color.NRGBA{cvals[0], cvals[1], cvals[2], 0xFF}, nil
	}
	if colorStr[0] == '#' {
		r, g, b, err := ParseSVGColorNum(colorStr)
		if err != nil {
			return nil, err
		}
		return color.NRGBA{r, g, b, 0xFF}, nil
	}
	return nil, paramMismatchError
}

// parseHSL reads the arguments of an hsl() color, e.g. "198, 47%, 65%".
func parseHSL(args string) (color.Color, error) {
	vals := strings.Split(args, ",")
	if len(vals) != 3 {
		return nil, paramMismatchError
	}
	var hsl [3]float64
	for i, v := range vals {
		v = strings.TrimSuffix(strings.TrimSpace(v), "%")
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		hsl[i] = f
	}
	h := math.Mod(hsl[0], 360) / 360
	if h < 0 {
		h++
	}
	s, l := clamp01(hsl[1]/100), clamp01(hsl[2]/100)
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	toByte := func(t float64) uint8 {
		return uint8(math.Round(hueToRGB(p, q, t) * 0xFF))
	}
	return color.NRGBA{toByte(h + 1.0/3), toByte(h), toByte(h - 1.0/3), 0xFF}, nil
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	} else if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// parseColorValue reads one rgb() component, an integer or a percentage,
// clamped to 0..255.
func parseColorValue(v string) (uint8, error) {
	num, percent := cutPercent(v)
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, err
	}
	if percent {
		n = n * 0xFF / 100
	}
	switch {
	case n < 0:
		n = 0
	case n > 0xFF:
		n = 0xFF
	}
	return uint8(n), nil
}

// readFraction reads an offset given as a number or a percentage and clamps
// it to [0, 1].
func readFraction(v string) (float64, error) {
	num, percent := cutPercent(v)
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	if percent {
		f /= 100
	}
	return clamp01(f), nil
}

func cutPercent(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if num := strings.TrimSuffix(v, "%"); num != v {
		return strings.TrimSpace(num), true
	}
	return v, false
}

// describeStop renders a stop for diagnostics, e.g. "50% #ff0000 0.8".
func describeStop(n Node) string {
	stop, err := ParseStop(n)
	if err != nil {
		return "unreadable stop: " + err.Error()
	}
	c := color.NRGBAModel.Convert(stop.StopColor).(color.NRGBA)
	return fmt.Sprintf("%g%% #%02x%02x%02x %g", stop.Offset*100, c.R, c.G, c.B, stop.Opacity)
}
