package door

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// Latch is the interface for all door latch implementations.
type Latch interface {
	// Open actuates the latch to the open position.
	Open() error

	// Close actuates the latch to the closed position.
	Close() error

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for latch implementations.
type Config struct {
	Type       string `yaml:"type"`        // "servo", "gpio_high", "gpio_low", "none"
	Pin        *int   `yaml:"pin"`         // GPIO pin number
	Chip       string `yaml:"chip"`        // gpiochip device for gpio latches
	OpenAngle  int    `yaml:"open_angle"`  // servo angle for open position (degrees)
	CloseAngle int    `yaml:"close_angle"` // servo angle for closed position (degrees)

	// Servo calibration. Zero fields take the DefaultCalibration values.
	MinPulseUs  int    `yaml:"min_pulse_us"`
	MaxPulseUs  int    `yaml:"max_pulse_us"`
	FrequencyHz int    `yaml:"frequency_hz"`
	Range       uint32 `yaml:"range"`
}

// New creates a Latch based on the provided configuration.
func New(cfg Config) (Latch, error) {
	if cfg.Pin == nil {
		return &Noop{}, nil
	}

	switch cfg.Type {
	case "servo":
		hw, err := govattu.Open()
		if err != nil {
			return nil, fmt.Errorf("open gpio: %w", err)
		}
		return NewServo(hw, uint8(*cfg.Pin), cfg.calibration(), cfg.OpenAngle, cfg.CloseAngle)
	case "gpio_high", "openhigh":
		return NewGPIO(cfg.Chip, *cfg.Pin, true)
	case "gpio_low", "openlow":
		return NewGPIO(cfg.Chip, *cfg.Pin, false)
	default:
		return &Noop{}, nil
	}
}

func (cfg Config) calibration() Calibration {
	cal := DefaultCalibration
	if cfg.MinPulseUs != 0 {
		cal.MinPulseUs = cfg.MinPulseUs
	}
	if cfg.MaxPulseUs != 0 {
		cal.MaxPulseUs = cfg.MaxPulseUs
	}
	if cfg.FrequencyHz != 0 {
		cal.FrequencyHz = cfg.FrequencyHz
	}
	if cfg.Range != 0 {
		cal.Range = cfg.Range
	}
	return cal
}
