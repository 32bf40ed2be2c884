package door

import "math"

// Calibration holds the pulse-width and PWM parameters for a servo.
// Range is the PWM counter range per period; with govattu's clock
// divisor of 19 a range of 20000 at 50Hz gives one count per microsecond.
type Calibration struct {
	MinPulseUs  int    // pulse width at 0 degrees
	MaxPulseUs  int    // pulse width at 180 degrees
	FrequencyHz int    // PWM period frequency
	Range       uint32 // counts per period
}

// DefaultCalibration suits common digital hobby servos (0.5ms-2.5ms
// pulse over a 20ms period).
var DefaultCalibration = Calibration{
	MinPulseUs:  500,
	MaxPulseUs:  2500,
	FrequencyHz: 50,
	Range:       20000,
}

// Duty converts an angle in degrees to a PWM duty count. Angles outside
// [0, 180] are clamped, not rejected. Zero frequency or range fall back
// to the defaults so a partially-filled Calibration stays finite.
func (c Calibration) Duty(angle int) uint32 {
	if c.FrequencyHz == 0 {
		c.FrequencyHz = DefaultCalibration.FrequencyHz
	}
	if c.Range == 0 {
		c.Range = DefaultCalibration.Range
	}

	if angle < 0 {
		angle = 0
	}
	if angle > 180 {
		angle = 180
	}

	pulseUs := float64(c.MinPulseUs) + float64(angle)/180.0*float64(c.MaxPulseUs-c.MinPulseUs)
	periodUs := 1e6 / float64(c.FrequencyHz)

	duty := math.Round(pulseUs / periodUs * float64(c.Range))
	if duty < 0 {
		return 0
	}
	if duty > float64(c.Range) {
		return c.Range
	}
	return uint32(duty)
}
