package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"golatch/reader"
)

var authorizedUID = []byte{0x53, 0xBF, 0x10, 0x19}

// fakeLatch records actuation commands.
type fakeLatch struct {
	opens  int
	closes int
}

func (f *fakeLatch) Open() error  { f.opens++; return nil }
func (f *fakeLatch) Close() error { f.closes++; return nil }

func (f *fakeLatch) Release() error { return nil }

// pollResult is one scripted reader response.
type pollResult struct {
	card *reader.Card
	err  error
}

// scriptReader returns scripted responses in order, then "no card".
type scriptReader struct {
	polls []pollResult
	i     int
}

func (s *scriptReader) Poll(ctx context.Context) (*reader.Card, error) {
	if s.i >= len(s.polls) {
		return nil, nil
	}
	r := s.polls[s.i]
	s.i++
	return r.card, r.err
}

func (s *scriptReader) Close() error { return nil }

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func authorized() pollResult {
	return pollResult{card: &reader.Card{UID: authorizedUID, Type: reader.TypeMifare1K}}
}

func withUID(uid ...byte) pollResult {
	return pollResult{card: &reader.Card{UID: uid, Type: reader.TypeMifare1K}}
}

func absent() pollResult {
	return pollResult{}
}

// harness wires a controller with fakes and a scripted reader.
type harness struct {
	ctrl   *Controller
	latch  *fakeLatch
	clock  *fakeClock
	events []Event
}

func newHarness(t *testing.T, polls ...pollResult) *harness {
	t.Helper()

	h := &harness{
		latch: &fakeLatch{},
		clock: &fakeClock{t: time.Unix(1000, 0)},
	}

	ctrl, err := New(h.latch, &scriptReader{polls: polls}, nil, Config{
		AuthorizedUID: authorizedUID,
		PollInterval:  200 * time.Millisecond,
		CloseDelay:    3 * time.Second,
		OnEvent:       func(ev Event) { h.events = append(h.events, ev) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctrl.now = h.clock.Now
	h.ctrl = ctrl
	return h
}

// step advances the clock by one poll interval and runs one cycle.
func (h *harness) step(t *testing.T) {
	t.Helper()
	h.clock.advance(200 * time.Millisecond)
	if err := h.ctrl.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}
}

func (h *harness) countEvents(typ EventType) int {
	n := 0
	for _, ev := range h.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestNewRequiresAuthorizedUID(t *testing.T) {
	if _, err := New(&fakeLatch{}, &scriptReader{}, nil, Config{}); err == nil {
		t.Fatal("expected error for missing authorized UID")
	}
}

func TestAuthorizedCardOpens(t *testing.T) {
	h := newHarness(t, absent(), authorized())

	h.step(t)
	if h.ctrl.State() != StateClosed {
		t.Fatal("expected closed with no card")
	}

	h.step(t)
	if h.ctrl.State() != StateOpen {
		t.Fatal("expected open after authorized card")
	}
	if h.latch.opens != 1 {
		t.Errorf("latch opens = %d, want 1", h.latch.opens)
	}
	if h.countEvents(EventGranted) != 1 || h.countEvents(EventOpened) != 1 {
		t.Errorf("events = %+v, want one granted and one opened", h.events)
	}
}

func TestWrongUIDStaysClosed(t *testing.T) {
	h := newHarness(t,
		withUID(0x53, 0xBF, 0x10, 0x18), // last byte off
		withUID(0xDE, 0xAD, 0xBE, 0xEF),
		withUID(0x53, 0xBF, 0x10), // short
		withUID(0x53, 0xBF, 0x10, 0x19, 0x00), // long
	)

	for i := 0; i < 4; i++ {
		h.step(t)
	}
	if h.ctrl.State() != StateClosed {
		t.Fatal("expected closed after unauthorized cards")
	}
	if h.latch.opens != 0 {
		t.Errorf("latch opens = %d, want 0", h.latch.opens)
	}
	if h.countEvents(EventGranted) != 0 {
		t.Error("unexpected granted event")
	}
}

func TestUnknownCardTypeIsAbsence(t *testing.T) {
	h := newHarness(t, pollResult{card: &reader.Card{UID: authorizedUID, Type: reader.TypeUnknown}})

	h.step(t)
	if h.ctrl.State() != StateClosed {
		t.Fatal("expected closed: unknown card type counts as absence")
	}
	if h.countEvents(EventDenied) != 0 {
		t.Error("unknown type should not raise a denied event")
	}
}

func TestAutoCloseAfterDelay(t *testing.T) {
	h := newHarness(t, authorized())

	h.step(t) // open
	if h.ctrl.State() != StateOpen {
		t.Fatal("expected open")
	}

	// First absent cycle starts the countdown; the close fires once
	// 3000ms have elapsed since then, which is 15 cycles at 200ms.
	for i := 0; i < 15; i++ {
		h.step(t)
		if h.ctrl.State() != StateOpen {
			t.Fatalf("closed early at absent cycle %d", i+1)
		}
	}

	h.step(t)
	if h.ctrl.State() != StateClosed {
		t.Fatal("expected closed once the delay elapsed")
	}
	if h.latch.closes != 1 {
		t.Errorf("latch closes = %d, want 1", h.latch.closes)
	}
	if h.countEvents(EventClosing) != 1 || h.countEvents(EventClosed) != 1 {
		t.Errorf("events = %+v, want one closing and one closed", h.events)
	}
}

func TestRepresentationCancelsClose(t *testing.T) {
	h := newHarness(t,
		authorized(), // open
		absent(),     // countdown starts
		absent(),
		absent(),
		authorized(), // cancel, just before 1s of absence
		absent(),     // countdown restarts
	)

	for i := 0; i < 6; i++ {
		h.step(t)
	}
	if h.ctrl.State() != StateOpen {
		t.Fatal("expected still open after re-presentation")
	}

	// A fresh full delay must elapse before closing.
	for i := 0; i < 14; i++ {
		h.step(t)
		if h.ctrl.State() != StateOpen {
			t.Fatalf("closed early at cycle %d after restart", i+1)
		}
	}
	h.step(t)
	if h.ctrl.State() != StateClosed {
		t.Fatal("expected closed after the restarted delay elapsed")
	}
}

func TestOpenIsIdempotentWhilePresent(t *testing.T) {
	polls := make([]pollResult, 10)
	for i := range polls {
		polls[i] = authorized()
	}
	h := newHarness(t, polls...)

	for i := 0; i < 10; i++ {
		h.step(t)
	}
	if h.latch.opens != 1 {
		t.Errorf("latch opens = %d, want 1 for a stationary card", h.latch.opens)
	}
	if h.countEvents(EventGranted) != 1 || h.countEvents(EventOpened) != 1 {
		t.Errorf("duplicate events for a stationary card: %+v", h.events)
	}
}

func TestDeniedLoggedOncePerPresence(t *testing.T) {
	wrong := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	h := newHarness(t,
		withUID(wrong...), withUID(wrong...), withUID(wrong...), // one presence
		absent(),
		withUID(wrong...), withUID(wrong...), // second presence
	)

	for i := 0; i < 6; i++ {
		h.step(t)
	}
	if got := h.countEvents(EventDenied); got != 2 {
		t.Errorf("denied events = %d, want 2 (one per presence)", got)
	}
}

func TestDeniedRearmedByAuthorizedCard(t *testing.T) {
	wrong := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	h := newHarness(t,
		withUID(wrong...),
		authorized(), // swapped directly, field never clears
		withUID(wrong...),
	)

	for i := 0; i < 3; i++ {
		h.step(t)
	}
	if got := h.countEvents(EventDenied); got != 2 {
		t.Errorf("denied events = %d, want 2 (authorized card ends the rejected presence)", got)
	}
	if h.ctrl.State() != StateOpen {
		t.Error("expected open: a later rejected card must not close the door")
	}
}

func TestReadErrorCountsAsAbsence(t *testing.T) {
	h := newHarness(t,
		authorized(),
		pollResult{err: errors.New("bus glitch")},
	)

	h.step(t)
	h.step(t)
	if h.ctrl.State() != StateOpen {
		t.Fatal("expected still open; one failed read is just absence")
	}
	if h.countEvents(EventClosing) != 1 {
		t.Error("expected the countdown to start on the failed read")
	}
}

func TestRequestExitOpensAndAutoCloses(t *testing.T) {
	h := newHarness(t)

	h.ctrl.RequestExit()
	h.step(t)
	if h.ctrl.State() != StateOpen {
		t.Fatal("expected open after exit request")
	}
	if h.latch.opens != 1 {
		t.Errorf("latch opens = %d, want 1", h.latch.opens)
	}

	for i := 0; i < 15; i++ {
		h.step(t)
	}
	h.step(t)
	if h.ctrl.State() != StateClosed {
		t.Fatal("expected auto-close after exit hold elapsed")
	}
}

func TestEndToEndBadgeScenario(t *testing.T) {
	polls := []pollResult{
		absent(),     // cycle 1
		authorized(), // cycle 2: door opens
	}
	h := newHarness(t, polls...)

	h.step(t)
	if h.ctrl.State() != StateClosed {
		t.Fatal("cycle 1: expected closed")
	}

	h.step(t)
	if h.ctrl.State() != StateOpen {
		t.Fatal("cycle 2: expected open")
	}
	if h.latch.opens != 1 {
		t.Fatalf("cycle 2: latch opens = %d, want 1", h.latch.opens)
	}

	// Card removed. Cycle 3 starts the absence window; the door holds
	// through 3000ms of absence and closes on the cycle that reaches it.
	closedAt := -1
	for i := 3; i <= 20; i++ {
		h.step(t)
		if h.ctrl.State() == StateClosed {
			closedAt = i
			break
		}
	}
	if closedAt != 18 {
		t.Fatalf("closed at cycle %d, want 18 (3000ms after the cycle-3 removal)", closedAt)
	}
	if h.latch.closes != 1 {
		t.Errorf("latch closes = %d, want 1", h.latch.closes)
	}
}
