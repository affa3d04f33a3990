package strip

// Color is a logical LED state from a small palette. Game and animation code
// works in these values; concrete intensities are only produced by Expand.
type Color uint8

const (
	Off Color = iota
	Red
	Green
	Blue
	RedFade1
	RedFade2
	RedFade3
	BlueFade1
	BlueFade2
	BlueFade3
	GreenFade1
	GreenFade2
	GreenFade3
	Yellow
	Purple

	numColors
)

// RGB is a concrete per-channel intensity.
type RGB struct {
	R, G, B uint8
}

// palette holds the unscaled intensity of every defined color.
var palette = [numColors]RGB{
	Off:        {},
	Red:        {R: 0x08},
	Green:      {G: 0x08},
	Blue:       {B: 0x08},
	RedFade1:   {R: 0x04},
	RedFade2:   {R: 0x02},
	RedFade3:   {R: 0x01},
	BlueFade1:  {B: 0x04},
	BlueFade2:  {B: 0x02},
	BlueFade3:  {B: 0x01},
	GreenFade1: {G: 0x04},
	GreenFade2: {G: 0x02},
	GreenFade3: {G: 0x01},
	Yellow:     {R: 0x12, G: 0x09},
	Purple:     {R: 0x08, B: 0x08},
}

var colorNames = [numColors]string{
	"off", "red", "green", "blue",
	"red-fade-1", "red-fade-2", "red-fade-3",
	"blue-fade-1", "blue-fade-2", "blue-fade-3",
	"green-fade-1", "green-fade-2", "green-fade-3",
	"yellow", "purple",
}

func (c Color) Valid() bool { return c < numColors }

func (c Color) String() string {
	if !c.Valid() {
		return "invalid"
	}
	return colorNames[c]
}

// Expand maps c to intensities scaled by brightness, saturating at 0xFF.
// Values outside the palette expand to off.
func Expand(c Color, brightness uint8) RGB {
	if !c.Valid() {
		return RGB{}
	}
	p := palette[c]
	return RGB{
		R: scale(p.R, brightness),
		G: scale(p.G, brightness),
		B: scale(p.B, brightness),
	}
}

// Fade returns the next dimmer step of a primary: Red -> RedFade1 -> ...
// -> RedFade3 -> Off. Composite colors and off fade straight to Off.
func Fade(c Color) Color {
	switch c {
	case Red:
		return RedFade1
	case Green:
		return GreenFade1
	case Blue:
		return BlueFade1
	case RedFade1, RedFade2, BlueFade1, BlueFade2, GreenFade1, GreenFade2:
		return c + 1
	}
	return Off
}

func scale(v, brightness uint8) uint8 {
	s := uint16(v) * uint16(brightness)
	if s > 0xFF {
		return 0xFF
	}
	return uint8(s)
}

// ChannelMA is the draw of one WS2812 color channel at full scale.
const ChannelMA = 20.0

// PeakMA estimates the strip current with every cell showing the most
// power hungry palette entry.
func PeakMA(count int, brightness uint8) float64 {
	var worst int
	for c := Color(0); c < numColors; c++ {
		v := Expand(c, brightness)
		worst = max(worst, int(v.R)+int(v.G)+int(v.B))
	}
	return float64(worst) / 255 * ChannelMA * float64(count)
}
