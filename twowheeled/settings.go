package twowheeled

import (
	"time"
)

const (
	TRIM_MIN = -100
	TRIM_MAX = 100
)

// Settings tunes a Controller. It is shared by pointer so trim changes apply to the next Drive.
type Settings struct {
	Trim              int
	MaxDuty           int
	Frequency         int
	KickStartSpeed    int
	KickStartDuration time.Duration
	MinActiveDuration time.Duration
	NominalVoltage    float64
	FloorVoltage      float64
	MaxBoost          float64
}

// DefaultSettings is tuned for an MX1508 driver on 4xAA cells.
func DefaultSettings() *Settings {
	return &Settings{
		MaxDuty:           1023,
		Frequency:         500,
		KickStartSpeed:    70,
		KickStartDuration: 20 * time.Millisecond,
		MinActiveDuration: 80 * time.Millisecond,
		NominalVoltage:    6.0,
		FloorVoltage:      4.7,
		MaxBoost:          1.3,
	}
}

func ClampTrim(trim int) int {
	return min(max(trim, TRIM_MIN), TRIM_MAX)
}

// SetTrim stores the clamped trim and returns it.
func (s *Settings) SetTrim(trim int) int {
	s.Trim = ClampTrim(trim)
	return s.Trim
}

// Compensation is the speed multiplier for a sagging battery.
func Compensation(voltage float64, s *Settings) float64 {
	if voltage >= s.NominalVoltage {
		return 1
	}
	return min(s.NominalVoltage/max(voltage, s.FloorVoltage), s.MaxBoost)
}
