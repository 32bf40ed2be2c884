package indicator

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// GPIO implements Indicator using discrete GPIO LED pins.
type GPIO struct {
	hw       govattu.Vattu
	greenPin *uint8
	redPin   *uint8
}

// NewGPIO creates a new GPIO-based indicator.
func NewGPIO(greenPin, redPin *uint8) (*GPIO, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	g := &GPIO{
		hw:       hw,
		greenPin: greenPin,
		redPin:   redPin,
	}

	// Initialize all pins as outputs, start off
	if greenPin != nil {
		hw.PinMode(*greenPin, govattu.ALToutput)
		hw.PinClear(*greenPin)
	}
	if redPin != nil {
		hw.PinMode(*redPin, govattu.ALToutput)
		hw.PinClear(*redPin)
	}

	return g, nil
}

// Idle implements Indicator.Idle.
func (g *GPIO) Idle() {
	g.allOff()
}

// Open implements Indicator.Open.
func (g *GPIO) Open() {
	g.allOff()
	if g.greenPin != nil {
		g.hw.PinSet(*g.greenPin)
	}
}

// Denied implements Indicator.Denied.
func (g *GPIO) Denied() {
	g.allOff()
	if g.redPin != nil {
		g.hw.PinSet(*g.redPin)
	}
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.allOff()
	return g.hw.Close()
}

func (g *GPIO) allOff() {
	if g.greenPin != nil {
		g.hw.PinClear(*g.greenPin)
	}
	if g.redPin != nil {
		g.hw.PinClear(*g.redPin)
	}
}
