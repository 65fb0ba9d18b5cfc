package dataset

import "image/color"

var (
	qualityLow  = color.NRGBA{0xef, 0x44, 0x44, 0xff} // red
	qualityMid  = color.NRGBA{0xf5, 0x9e, 0x0b, 0xff} // amber
	qualityHigh = color.NRGBA{0x10, 0xb9, 0x81, 0xff} // green

	// CategoryColor fills category nodes.
	CategoryColor = color.NRGBA{0x8b, 0x5c, 0xf6, 0xff}
)

// QualityColor maps a 0-100 quality score onto a red -> amber -> green scale.
func QualityColor(score float64) color.NRGBA {
	t := score / 100
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if t < 0.5 {
		return lerp(qualityLow, qualityMid, t*2)
	}
	return lerp(qualityMid, qualityHigh, (t-0.5)*2)
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}
