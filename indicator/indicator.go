package indicator

// Indicator is the interface for status indicator implementations
// (panel LEDs and the like).
type Indicator interface {
	// Idle sets the indicator to idle/ready state (door closed, waiting).
	Idle()

	// Open sets the indicator to door-open state.
	Open()

	// Denied flashes the access denied state.
	Denied()

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for indicator implementations.
type Config struct {
	// GPIO LED pins (nil = not configured)
	GreenPin *uint8 `yaml:"green_pin"`
	RedPin   *uint8 `yaml:"red_pin"`
}

// New creates an Indicator based on the provided configuration.
func New(cfg Config) (Indicator, error) {
	var indicators []Indicator

	if cfg.GreenPin != nil || cfg.RedPin != nil {
		gpio, err := NewGPIO(cfg.GreenPin, cfg.RedPin)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, gpio)
	}

	if len(indicators) == 0 {
		return &Noop{}, nil
	}
	if len(indicators) == 1 {
		return indicators[0], nil
	}
	return &Multi{indicators: indicators}, nil
}
