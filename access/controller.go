package access

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golatch/door"
	"golatch/indicator"
	"golatch/reader"
)

// State is the door latch state.
type State int

const (
	// StateClosed is the initial state: latch closed, waiting for the
	// authorized card.
	StateClosed State = iota

	// StateOpen means the latch was commanded open. While open with no
	// card in range, the absence timer runs toward the auto-close.
	StateOpen
)

// String returns a human-readable state name.
func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// EventType identifies a controller event.
type EventType string

const (
	EventGranted EventType = "granted" // authorized card recognized
	EventDenied  EventType = "denied"  // unauthorized card presented
	EventOpened  EventType = "opened"  // latch commanded open
	EventClosing EventType = "closing" // absence countdown started
	EventClosed  EventType = "closed"  // latch commanded closed
)

// Event is one controller event, delivered to the OnEvent callback.
type Event struct {
	Type EventType
	UID  []byte // card UID for granted/denied, nil otherwise
}

// Config holds controller settings.
type Config struct {
	// AuthorizedUID is the single card serial number that opens the
	// door. Required.
	AuthorizedUID []byte

	// PollInterval is the reader polling period. Default 200ms.
	PollInterval time.Duration

	// CloseDelay is how long the door stays open after the card leaves
	// range. Default 3s.
	CloseDelay time.Duration

	// OnEvent, if set, is called for every access and door event.
	OnEvent func(Event)
}

// Controller drives the door state machine: one reader poll per cycle,
// latch actuation on the authorized card, timed auto-close once the
// card has been absent for the close delay.
//
// On startup the state is closed regardless of physical door position;
// a deployment must verify the physical door out of band.
type Controller struct {
	cfg       Config
	latch     door.Latch
	reader    reader.CardReader
	indicator indicator.Indicator
	exitCh    chan struct{}

	now func() time.Time

	state       State
	absentSince time.Time // zero unless open with no card in range
	deniedUID   []byte    // last rejected UID, quiets repeat denial logs
}

// New creates a Controller. The latch and reader are required; a nil
// indicator gets a noop.
func New(latch door.Latch, rdr reader.CardReader, ind indicator.Indicator, cfg Config) (*Controller, error) {
	if len(cfg.AuthorizedUID) == 0 {
		return nil, errors.New("authorized UID not configured")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if cfg.CloseDelay == 0 {
		cfg.CloseDelay = 3 * time.Second
	}
	if ind == nil {
		ind = &indicator.Noop{}
	}

	return &Controller{
		cfg:       cfg,
		latch:     latch,
		reader:    rdr,
		indicator: ind,
		exitCh:    make(chan struct{}, 1),
		now:       time.Now,
		state:     StateClosed,
	}, nil
}

// State returns the current door state.
func (c *Controller) State() State {
	return c.state
}

// RequestExit requests a manual open, as from an egress button. Safe to
// call from any goroutine; takes effect on the next cycle.
func (c *Controller) RequestExit() {
	select {
	case c.exitCh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Step(ctx); err != nil {
				return err
			}
		}
	}
}

// Step runs one polling cycle. It returns an error only when ctx is
// cancelled; every hardware problem degrades to "no card this cycle".
func (c *Controller) Step(ctx context.Context) error {
	card, err := c.reader.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		log.Printf("Read card: %v", err)
		card = nil // transient failure counts as absence this cycle
	}

	// A card type outside the MIFARE family is treated as absence, not
	// an alarm.
	if card != nil && !card.Type.Mifare() {
		card = nil
	}

	present := false
	if card != nil {
		if bytes.Equal(card.UID, c.cfg.AuthorizedUID) {
			present = true
			// The rejected presence ended even though the field never
			// cleared: re-arm the denial log.
			if len(c.deniedUID) > 0 {
				c.deniedUID = c.deniedUID[:0]
				if c.state == StateOpen {
					c.indicator.Open()
				}
			}
		} else if !bytes.Equal(card.UID, c.deniedUID) {
			// Log once per newly-rejected presence, not every cycle the
			// card sits in range.
			c.deniedUID = append(c.deniedUID[:0], card.UID...)
			fmt.Printf("Access denied for card % X (%s)\n", card.UID, card.Type)
			c.indicator.Denied()
			c.emit(Event{Type: EventDenied, UID: card.UID})
		}
	} else {
		if len(c.deniedUID) > 0 {
			// Rejected card left the field: restore the indicator and
			// re-arm the denial log.
			if c.state == StateOpen {
				c.indicator.Open()
			} else {
				c.indicator.Idle()
			}
		}
		c.deniedUID = c.deniedUID[:0]
	}

	select {
	case <-c.exitCh:
		fmt.Println("Exit requested")
		if c.state == StateClosed {
			c.open(nil, EventGranted)
		}
		// Restart the hold period from now.
		c.absentSince = time.Time{}
	default:
	}

	if present {
		// Re-presentation before the delay elapses fully cancels any
		// pending close.
		c.absentSince = time.Time{}
		if c.state == StateClosed {
			fmt.Printf("Access granted for card % X\n", card.UID)
			c.open(card.UID, EventGranted)
		}
	}

	if c.state == StateOpen && !present {
		now := c.now()
		if c.absentSince.IsZero() {
			c.absentSince = now
			fmt.Printf("Card left range, closing in %v\n", c.cfg.CloseDelay)
			c.emit(Event{Type: EventClosing})
		} else if now.Sub(c.absentSince) >= c.cfg.CloseDelay {
			fmt.Println("Door closing")
			if err := c.latch.Close(); err != nil {
				log.Printf("Latch close: %v", err)
			}
			c.state = StateClosed
			c.absentSince = time.Time{}
			c.indicator.Idle()
			c.emit(Event{Type: EventClosed})
		}
	}

	return nil
}

func (c *Controller) open(uid []byte, cause EventType) {
	c.emit(Event{Type: cause, UID: uid})
	if err := c.latch.Open(); err != nil {
		log.Printf("Latch open: %v", err)
	}
	c.state = StateOpen
	c.indicator.Open()
	c.emit(Event{Type: EventOpened})
}

func (c *Controller) emit(ev Event) {
	if c.cfg.OnEvent != nil {
		c.cfg.OnEvent(ev)
	}
}
