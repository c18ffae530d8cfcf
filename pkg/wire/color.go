package wire

// ColorCode is the color bucket reported in the heartbeat.
type ColorCode byte

// Color buckets.
const (
	ColorNone ColorCode = iota
	ColorBlack
	ColorPurple
	ColorBlue
	ColorCyan
	ColorGreen
	ColorYellow
	ColorRed
	ColorWhite
	ColorOther
)

var colorNames = [...]string{"none", "black", "purple", "blue", "cyan", "green", "yellow", "red", "white", "other"}

func (c ColorCode) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "invalid"
}

type colorRule struct {
	code  ColorCode
	match func(r, g, b int) bool
}

// Rules overlap at the edges, order matters.
var colorRules = []colorRule{
	{ColorBlack, func(r, g, b int) bool { return r < 50 && g < 50 && b < 50 }},
	{ColorPurple, func(r, g, b int) bool { return r > 100 && g < 180 && b > 100 }},
	{ColorBlue, func(r, g, b int) bool { return r < 50 && g < 100 && b > 70 }},
	{ColorCyan, func(r, g, b int) bool { return r < 30 && g > 70 && b > 50 }},
	{ColorGreen, func(r, g, b int) bool { return r < 100 && g > 150 && b < 100 }},
	{ColorYellow, func(r, g, b int) bool { return r > 100 && g > 70 && b < 50 }},
	{ColorRed, func(r, g, b int) bool { return r > 100 && g < 60 && b < 60 }},
	{ColorWhite, func(r, g, b int) bool { return r > 200 && g > 200 && b > 200 }},
}

// ClassifyColor buckets an RGB reading. Channels above 255 are treated
// as 255.
func ClassifyColor(r, g, b int) ColorCode {
	r, g, b = int(ClampByte(r)), int(ClampByte(g)), int(ClampByte(b))
	for _, rule := range colorRules {
		if rule.match(r, g, b) {
			return rule.code
		}
	}
	if r == 0 && g == 0 && b == 0 {
		return ColorNone
	}
	return ColorOther
}
