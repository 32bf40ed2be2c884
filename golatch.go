package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"golatch/access"
	"golatch/button"
	"golatch/door"
	"golatch/indicator"
	"golatch/mqtt"
	"golatch/reader"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	mqtt      *mqtt.Client
	reader    reader.CardReader
	latch     door.Latch
	indicator indicator.Indicator
	button    *button.Button
	ctrl      *access.Controller
	ctx       context.Context
	cancel    context.CancelFunc
}

func main() {
	fmt.Printf("golatch build %s\n", myBuild)

	openflag := flag.Bool("holdopen", false, "Hold door open indefinitely")
	cfgfile := flag.String("cfg", "golatch.cfg", "Config file")
	flag.Parse()

	// Load configuration
	f, err := os.Open(*cfgfile)
	if err != nil {
		log.Fatalf("Open config: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("Decode config: %v", err)
	}

	if cfg.ClientID == "" {
		log.Fatal("client_id missing in config file")
	}

	uid, err := cfg.AuthorizedUIDBytes()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:    &cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	// Initialize indicator LEDs
	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		log.Fatalf("Init indicator: %v", err)
	}

	// Initialize door latch
	app.latch, err = door.New(cfg.Door)
	if err != nil {
		log.Fatalf("Init latch: %v", err)
	}

	// Handle holdopen flag
	if *openflag {
		if err := app.latch.Open(); err != nil {
			log.Fatalf("Latch open: %v", err)
		}
		fmt.Println("Holding door open")
		select {} // Block forever
	}

	// Initialize card reader. Any failure here, including an
	// unrecognized firmware signature, halts the device: better to
	// refuse operation than to run with an unverified reader.
	app.reader, err = reader.New(cfg.Reader)
	if err != nil {
		log.Fatalf("Init reader: %v", err)
	}

	// Initialize MQTT telemetry
	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID)
	if err != nil {
		log.Fatalf("Init MQTT: %v", err)
	}

	// Build the door controller
	app.ctrl, err = access.New(app.latch, app.reader, app.indicator, access.Config{
		AuthorizedUID: uid,
		PollInterval:  time.Duration(cfg.PollMs) * time.Millisecond,
		CloseDelay:    time.Duration(cfg.CloseDelayMs) * time.Millisecond,
		OnEvent:       app.publishEvent,
	})
	if err != nil {
		log.Fatalf("Init controller: %v", err)
	}

	// Initialize egress button if configured
	app.button, err = button.New(cfg.Button, app.ctrl.RequestExit)
	if err != nil {
		log.Fatalf("Init button: %v", err)
	}
	if app.button != nil {
		log.Printf("Egress button initialized (pin %d)", *cfg.Button.Pin)
	}

	// Start background goroutines
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
	go app.pingSender()
	go func() {
		if err := app.ctrl.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	cancel()

	// Cleanup
	app.mqtt.Disconnect()
	app.reader.Close()
	app.latch.Release()
	app.indicator.Release()
	if app.button != nil {
		app.button.Release()
	}

	fmt.Println("Shutdown complete")
}

// publishEvent reports controller events over MQTT.
func (app *App) publishEvent(ev access.Event) {
	switch ev.Type {
	case access.EventGranted, access.EventDenied:
		allowed := 0
		if ev.Type == access.EventGranted {
			allowed = 1
		}
		topic := fmt.Sprintf("latch/status/node/%s/access", app.cfg.ClientID)
		msg := fmt.Sprintf(`{"allowed":%d,"uid":"%s"}`, allowed, hex.EncodeToString(ev.UID))
		app.mqtt.Publish(topic, msg)

	case access.EventOpened, access.EventClosing, access.EventClosed:
		topic := fmt.Sprintf("latch/status/node/%s/door", app.cfg.ClientID)
		msg := fmt.Sprintf(`{"door":"%s"}`, ev.Type)
		app.mqtt.Publish(topic, msg)
	}
}

func (app *App) pingSender() {
	ticker := time.NewTicker(120 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			topic := fmt.Sprintf("latch/status/node/%s/ping", app.cfg.ClientID)
			app.mqtt.Publish(topic, `{"status":"ok"}`)
		}
	}
}
