package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

const (
	stx = 0x02
	etx = 0x03
)

// Wiegand implements CardReader for Wiegand-to-serial converter boards
// that emit ASCII hex frames: STX, two SAK digits, eight UID digits,
// two XOR checksum digits, ETX. These boards are transmit-only, so no
// firmware handshake is possible at startup.
type Wiegand struct {
	port serial.Port
}

// NewWiegand creates a new Wiegand reader on the specified serial port.
func NewWiegand(device string, baud int) (*Wiegand, error) {
	if baud == 0 {
		baud = 9600
	}

	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	_ = p.SetReadTimeout(50 * time.Millisecond)

	w := &Wiegand{port: p}
	w.flush()
	return w, nil
}

// Poll implements CardReader.Poll for Wiegand readers.
func (w *Wiegand) Poll(ctx context.Context) (*Card, error) {
	if w.port == nil {
		return nil, errors.New("port not initialized")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	first := make([]byte, 1)
	n, err := w.port.Read(first)
	if err != nil {
		return nil, fmt.Errorf("read STX: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	if first[0] != stx {
		w.flush()
		return nil, nil
	}

	digits := make([]byte, 0, 12)
	buf := make([]byte, 1)
	for {
		n, err := w.port.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if n == 0 {
			w.flush()
			return nil, nil
		}
		if buf[0] == etx {
			break
		}
		digits = append(digits, buf[0])
	}

	return parseWiegandFrame(string(digits))
}

// parseWiegandFrame decodes the twelve hex digits between STX and ETX.
func parseWiegandFrame(id string) (*Card, error) {
	if len(id) != 12 {
		return nil, fmt.Errorf("frame length %d, want 12 hex digits", len(id))
	}

	raw := make([]byte, 6)
	for i := 0; i < 6; i++ {
		hi, err := hexCharToNibble(id[2*i])
		if err != nil {
			return nil, fmt.Errorf("invalid hex at pos %d: %w", 2*i, err)
		}
		lo, err := hexCharToNibble(id[2*i+1])
		if err != nil {
			return nil, fmt.Errorf("invalid hex at pos %d: %w", 2*i+1, err)
		}
		raw[i] = byte(hi<<4 | lo)
	}

	var checksum byte
	for i := 0; i < 5; i++ {
		checksum ^= raw[i]
	}
	if checksum != raw[5] {
		return nil, fmt.Errorf("checksum 0x%02x, computed 0x%02x", raw[5], checksum)
	}

	uid := make([]byte, 4)
	copy(uid, raw[1:5])
	return &Card{UID: uid, Type: classify(raw[0])}, nil
}

// Close implements CardReader.Close.
func (w *Wiegand) Close() error {
	if w.port == nil {
		return nil
	}
	return w.port.Close()
}

func (w *Wiegand) flush() {
	if w.port == nil {
		return
	}
	_ = w.port.SetReadTimeout(10 * time.Millisecond)
	defer func() {
		_ = w.port.SetReadTimeout(50 * time.Millisecond)
	}()

	tmp := make([]byte, 64)
	for {
		n, err := w.port.Read(tmp)
		if err != nil || n == 0 {
			return
		}
	}
}

func hexCharToNibble(c byte) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, nil
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, nil
	default:
		return 0, fmt.Errorf("not a hex char: %q", c)
	}
}
