package door

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO implements Latch by driving a strike-plate relay on a single
// GPIO line.
type GPIO struct {
	line     *gpiocdev.Line
	openHigh bool // true = drive line high to open, false = drive low
}

// NewGPIO creates a GPIO-based latch on the given chip and line offset.
func NewGPIO(chip string, pin int, openHigh bool) (*GPIO, error) {
	if chip == "" {
		chip = "gpiochip0"
	}

	closedValue := 0
	if !openHigh {
		closedValue = 1
	}

	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(closedValue))
	if err != nil {
		return nil, fmt.Errorf("request gpio line %s:%d: %w", chip, pin, err)
	}

	return &GPIO{line: line, openHigh: openHigh}, nil
}

// Open implements Latch.Open.
func (g *GPIO) Open() error {
	if g.openHigh {
		return g.line.SetValue(1)
	}
	return g.line.SetValue(0)
}

// Close implements Latch.Close.
func (g *GPIO) Close() error {
	if g.openHigh {
		return g.line.SetValue(0)
	}
	return g.line.SetValue(1)
}

// Release implements Latch.Release.
func (g *GPIO) Release() error {
	return g.line.Close()
}
