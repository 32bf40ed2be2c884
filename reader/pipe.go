package reader

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
)

// Pipe implements CardReader by reading hex UIDs, one per line, from a
// named pipe. Intended for bench testing the full loop without reader
// hardware:
//
//	echo 53bf1019 > /tmp/golatch-cards
type Pipe struct {
	path   string
	cards  chan *Card
	cancel context.CancelFunc
}

// NewPipe creates the named pipe and starts listening on it.
func NewPipe(path string) (*Pipe, error) {
	if path == "" {
		return nil, fmt.Errorf("pipe reader requires a device path")
	}

	// Remove existing pipe if it exists
	os.Remove(path)

	if err := syscall.Mkfifo(path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipe{
		path:   path,
		cards:  make(chan *Card, 4),
		cancel: cancel,
	}
	go p.listen(ctx)
	return p, nil
}

func (p *Pipe) listen(ctx context.Context) {
	log.Printf("Card pipe listening on %s", p.path)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Open blocks until a writer connects.
		file, err := os.OpenFile(p.path, os.O_RDONLY, 0)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Card pipe open error: %v", err)
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				file.Close()
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			card, err := parsePipeLine(line)
			if err != nil {
				log.Printf("Card pipe parse error: %v", err)
				continue
			}

			select {
			case p.cards <- card:
			default:
			}
		}

		file.Close()
		// Writer closed the pipe, loop back to wait for next writer
	}
}

// parsePipeLine decodes a line of the form "uidhex" or "uidhex sak".
func parsePipeLine(line string) (*Card, error) {
	parts := strings.Fields(line)

	uid, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid UID hex %q: %w", parts[0], err)
	}

	typ := TypeMifare1K
	if len(parts) > 1 {
		sak, err := hex.DecodeString(parts[1])
		if err != nil || len(sak) != 1 {
			return nil, fmt.Errorf("invalid SAK hex %q", parts[1])
		}
		typ = classify(sak[0])
	}

	return &Card{UID: uid, Type: typ}, nil
}

// Poll implements CardReader.Poll.
func (p *Pipe) Poll(ctx context.Context) (*Card, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case card := <-p.cards:
		return card, nil
	default:
		return nil, nil
	}
}

// Close implements CardReader.Close and removes the pipe.
func (p *Pipe) Close() error {
	p.cancel()
	// The listener blocks in the FIFO open until a writer connects;
	// connect one so it can observe the cancel and exit.
	if f, err := os.OpenFile(p.path, os.O_WRONLY|syscall.O_NONBLOCK, 0); err == nil {
		f.Close()
	}
	return os.Remove(p.path)
}
