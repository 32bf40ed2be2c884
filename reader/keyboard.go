package reader

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/kenshaw/evdev"
)

// Keyboard implements CardReader for USB keyboard-wedge readers that
// type the UID digits followed by Enter. A wedge reports a card once
// per presentation, so presence lasts a single cycle; the close delay
// still holds the door for the configured time after each read.
type Keyboard struct {
	device *evdev.Evdev
	cards  chan *Card
	cancel context.CancelFunc
}

// NewKeyboard creates a new keyboard reader on the specified input
// device. Format is "h" for hex digits (default) or "d" for decimal.
func NewKeyboard(device string, format string) (*Keyboard, error) {
	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", device, err)
	}

	log.Printf("Opened keyboard device: %s", dev.Name())
	log.Printf("Vendor: 0x%04x, Product: 0x%04x", dev.ID().Vendor, dev.ID().Product)

	isHex := !strings.HasSuffix(strings.ToLower(format), "d")

	ctx, cancel := context.WithCancel(context.Background())
	k := &Keyboard{
		device: dev,
		cards:  make(chan *Card, 4),
		cancel: cancel,
	}
	go k.listen(ctx, isHex)
	return k, nil
}

// listen accumulates key presses into badge lines and queues a card
// for each digits-plus-Enter sequence.
func (k *Keyboard) listen(ctx context.Context, isHex bool) {
	ch := k.device.Poll(ctx)
	var strbuf string

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			if event == nil {
				return
			}

			switch event.Type.(type) {
			case evdev.KeyType:
				if event.Value != 1 {
					continue
				}

				if event.Type == evdev.KeyEnter {
					if strbuf == "" {
						continue
					}

					base := 16
					if !isHex {
						base = 10
					}
					number, err := strconv.ParseUint(strbuf, base, 64)
					if err != nil {
						log.Printf("Bad badge line %q (base %d): %v", strbuf, base, err)
						strbuf = ""
						continue
					}
					strbuf = ""

					// Wedge readers report the low 32 bits of the
					// serial number.
					uid := make([]byte, 4)
					binary.BigEndian.PutUint32(uid, uint32(number))

					// Classification is not transmitted; a wedge only
					// types after a successful MIFARE selection.
					card := &Card{UID: uid, Type: TypeMifare1K}

					select {
					case k.cards <- card:
					default: // nobody polling, drop it
					}
					continue
				}

				strbuf += evdev.KeyType(event.Code).String()
			}
		}
	}
}

// Poll implements CardReader.Poll. Non-blocking: returns a queued
// badge read if one completed since the last cycle.
func (k *Keyboard) Poll(ctx context.Context) (*Card, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case card := <-k.cards:
		return card, nil
	default:
		return nil, nil
	}
}

// Close implements CardReader.Close.
func (k *Keyboard) Close() error {
	k.cancel()
	if k.device == nil {
		return nil
	}
	return k.device.Close()
}
