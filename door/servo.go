package door

import (
	"time"

	"github.com/hjkoskel/govattu"
)

// Servo implements Latch using PWM servo control.
type Servo struct {
	hw        govattu.Vattu
	pin       uint8
	openDuty  uint32
	closeDuty uint32
	duty      uint32
	isOpen    bool
}

// NewServo creates a servo-based latch. The servo is driven to the
// closed angle on startup; the controller assumes a closed door after
// restart regardless of physical reality.
func NewServo(hw govattu.Vattu, pin uint8, cal Calibration, openAngle, closeAngle int) (*Servo, error) {
	hw.PinMode(pin, govattu.ALT5) // ALT5 for PWM0
	hw.PwmSetMode(true, true, false, false)
	hw.PwmSetClock(19)
	hw.Pwm0SetRange(cal.Range)

	s := &Servo{
		hw:        hw,
		pin:       pin,
		openDuty:  cal.Duty(openAngle),
		closeDuty: cal.Duty(closeAngle),
	}

	s.duty = s.closeDuty
	s.hw.Pwm0Set(s.closeDuty)
	return s, nil
}

// Open implements Latch.Open. Opening an already-open latch is a no-op.
func (s *Servo) Open() error {
	if s.isOpen {
		return nil
	}
	s.sweepTo(s.openDuty)
	s.isOpen = true
	return nil
}

// Close implements Latch.Close. Closing an already-closed latch is a no-op.
func (s *Servo) Close() error {
	if !s.isOpen {
		return nil
	}
	s.sweepTo(s.closeDuty)
	s.isOpen = false
	return nil
}

// Release implements Latch.Release.
func (s *Servo) Release() error {
	return s.hw.Close()
}

// sweepTo steps the duty one count at a time so the latch arm moves
// slowly instead of slamming.
func (s *Servo) sweepTo(to uint32) {
	inc := int64(1)
	if to < s.duty {
		inc = -1
	}
	for i := int64(s.duty); i != int64(to); i += inc {
		s.hw.Pwm0Set(uint32(i + inc))
		time.Sleep(2 * time.Millisecond)
	}
	s.duty = to
}
