package reader

import (
	"context"
	"errors"
	"fmt"
)

// ErrBadFirmware is returned when a reader reports an unknown firmware
// signature at startup. Callers treat this as fatal: the device refuses
// to run with an unverified reader.
var ErrBadFirmware = errors.New("reader firmware signature not recognized")

// CardType classifies a presented card, derived from the SAK byte the
// reader reports during selection.
type CardType int

const (
	TypeUnknown CardType = iota
	TypeMifareUL
	TypeMifare1K
	TypeMifare4K
	TypeMifareDESFire
)

// String returns a human-readable card type name.
func (t CardType) String() string {
	switch t {
	case TypeMifareUL:
		return "MIFARE Ultralight"
	case TypeMifare1K:
		return "MIFARE 1K"
	case TypeMifare4K:
		return "MIFARE 4K"
	case TypeMifareDESFire:
		return "MIFARE DESFire"
	default:
		return "unknown"
	}
}

// Mifare reports whether the card type is in the MIFARE family.
// UID comparison alone is the entire access model here: no sector
// authentication is performed, so anything that answers selection with
// a MIFARE SAK is eligible. Known-weak, inherited behavior.
func (t CardType) Mifare() bool {
	switch t {
	case TypeMifareUL, TypeMifare1K, TypeMifare4K, TypeMifareDESFire:
		return true
	}
	return false
}

// Card is one observed card: its serial number and classification.
type Card struct {
	UID  []byte
	Type CardType
}

// CardReader is the interface for all card reader implementations.
type CardReader interface {
	// Poll performs one presence check. A nil Card with nil error means
	// no card is in range this cycle. Poll must not deactivate an
	// in-range card: a stationary card is reported on every cycle.
	Poll(ctx context.Context) (*Card, error)

	// Close releases any resources held by the reader.
	Close() error
}

// Config holds common configuration for reader implementations.
type Config struct {
	Type   string `yaml:"type"`   // "serial", "wiegand", "keyboard", "pipe"
	Device string `yaml:"device"` // e.g., "/dev/serial0", "/dev/input/event0"
	Baud   int    `yaml:"baud"`   // baud rate for serial devices
	Format string `yaml:"format"` // keyboard digit format, e.g. "8h"
}

// New creates a CardReader based on the provided configuration.
func New(cfg Config) (CardReader, error) {
	switch cfg.Type {
	case "serial", "":
		return NewSerial(cfg.Device, cfg.Baud)
	case "wiegand":
		return NewWiegand(cfg.Device, cfg.Baud)
	case "keyboard", "kbd":
		return NewKeyboard(cfg.Device, cfg.Format)
	case "pipe":
		return NewPipe(cfg.Device)
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}

// classify maps a SAK byte to a CardType.
func classify(sak byte) CardType {
	switch sak {
	case 0x00:
		return TypeMifareUL
	case 0x08:
		return TypeMifare1K
	case 0x18:
		return TypeMifare4K
	case 0x20:
		return TypeMifareDESFire
	default:
		return TypeUnknown
	}
}
