package demographics

import "math"

const (
	meterSize   = 720
	meterStroke = 18
)

// ArcMeter holds the SVG geometry of the circular confidence meter.
// The filled arc starts at twelve o'clock and covers Value of the circle.
type ArcMeter struct {
	Size          float64
	Stroke        float64
	Center        float64
	Radius        float64
	Circumference float64
	Dash          float64
	Gap           float64
	Value         float64
}

// NewArcMeter computes the meter for a confidence value. Values outside
// [0,1] are clamped so the dash array stays valid.
func NewArcMeter(value float64) ArcMeter {
	if math.IsNaN(value) {
		value = 0
	}
	value = min(max(value, 0), 1)

	r := float64(meterSize-meterStroke) / 2
	c := 2 * math.Pi * r
	dash := c * value

	return ArcMeter{
		Size:          meterSize,
		Stroke:        meterStroke,
		Center:        meterSize / 2,
		Radius:        r,
		Circumference: c,
		Dash:          dash,
		Gap:           c - dash,
		Value:         value,
	}
}
