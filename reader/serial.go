package reader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Serial frame layout, 9 bytes:
//
//	[0x02][0x09][sak][uid0][uid1][uid2][uid3][xor][0x03]
//
// xor covers bytes 1 through 6 (length, sak, uid).
const (
	frameLen   = 9
	frameSTX   = 0x02
	frameETX   = 0x03
	cmdVersion = 0x76 // 'v': firmware version query
)

// Known firmware signatures (MFRC522 VersionReg values).
var knownFirmware = []byte{0x91, 0x92}

// Serial implements CardReader for UART-attached reader modules.
type Serial struct {
	port   *serial.Port
	device string
}

// NewSerial opens a serial reader and verifies its firmware signature.
// An unrecognized signature fails with ErrBadFirmware; the caller is
// expected to halt rather than run with an unverified reader.
func NewSerial(device string, baud int) (*Serial, error) {
	if baud == 0 {
		baud = 115200
	}

	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 200 * time.Millisecond,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	s := &Serial{port: port, device: device}
	if err := verifyFirmware(port); err != nil {
		port.Close()
		return nil, fmt.Errorf("verify %s: %w", device, err)
	}
	return s, nil
}

// verifyFirmware queries the version register over rw and checks the
// response against the known signatures.
func verifyFirmware(rw io.ReadWriter) error {
	if _, err := rw.Write([]byte{cmdVersion}); err != nil {
		return fmt.Errorf("query firmware version: %w", err)
	}

	buf := make([]byte, 1)
	n, err := rw.Read(buf)
	if err != nil || n != 1 {
		return fmt.Errorf("%w: no version response", ErrBadFirmware)
	}

	for _, v := range knownFirmware {
		if buf[0] == v {
			return nil
		}
	}
	return fmt.Errorf("%w: version 0x%02x", ErrBadFirmware, buf[0])
}

// Poll implements CardReader.Poll. One read attempt per call; timeouts,
// partial reads and malformed frames all count as no card this cycle.
func (s *Serial) Poll(ctx context.Context) (*Card, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	buff := make([]byte, frameLen)
	n, err := s.port.Read(buff)
	if err != nil {
		return nil, nil // Timeout, try again next cycle
	}
	if n != frameLen {
		return nil, nil // Partial read
	}

	return parseFrame(buff)
}

// parseFrame validates one 9-byte frame and extracts the card.
func parseFrame(buff []byte) (*Card, error) {
	if len(buff) != frameLen {
		return nil, nil
	}
	if buff[0] != frameSTX || buff[1] != frameLen || buff[8] != frameETX {
		return nil, nil
	}

	data := buff[1:7]
	xor := data[0]
	for i := 1; i < len(data); i++ {
		xor ^= data[i]
	}
	if xor != buff[7] {
		return nil, nil // Checksum mismatch
	}

	uid := make([]byte, 4)
	copy(uid, buff[3:7])
	return &Card{UID: uid, Type: classify(buff[2])}, nil
}

// Close implements CardReader.Close.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
