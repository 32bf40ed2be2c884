package button

import (
	"fmt"
	"time"

	"github.com/warthog618/gpio"
)

// Config holds configuration for the egress button.
type Config struct {
	Pin *int `yaml:"pin"` // GPIO pin number (nil = no button)
}

// Button watches a request-to-exit push button wired between a GPIO
// pin and ground.
type Button struct {
	pin      *gpio.Pin
	onPress  func()
	lastEdge time.Time
}

// New creates an egress button watcher. Returns nil if no pin is
// configured. onPress is called from the watch goroutine on each press.
func New(cfg Config, onPress func()) (*Button, error) {
	if cfg.Pin == nil {
		return nil, nil
	}

	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	b := &Button{
		pin:     gpio.NewPin(*cfg.Pin),
		onPress: onPress,
	}
	b.pin.Input()
	b.pin.PullUp()

	if err := b.pin.Watch(gpio.EdgeFalling, b.pressed); err != nil {
		gpio.Close()
		return nil, fmt.Errorf("watch pin %d: %w", *cfg.Pin, err)
	}

	return b, nil
}

// pressed handles one falling edge, with a 200ms lockout against
// contact bounce.
func (b *Button) pressed(pin *gpio.Pin) {
	now := time.Now()
	if now.Sub(b.lastEdge) < 200*time.Millisecond {
		return
	}
	b.lastEdge = now

	if b.onPress != nil {
		b.onPress()
	}
}

// Release stops watching and releases the GPIO resources.
func (b *Button) Release() error {
	b.pin.Unwatch()
	gpio.Close()
	return nil
}
