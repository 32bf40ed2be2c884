package main

import (
	"encoding/hex"
	"fmt"

	"golatch/button"
	"golatch/door"
	"golatch/indicator"
	"golatch/mqtt"
	"golatch/reader"
)

// Config is the main configuration structure for golatch.
type Config struct {
	// MQTT connection settings for telemetry
	MQTT mqtt.Config `yaml:"mqtt"`

	// Reader configuration
	Reader reader.Config `yaml:"reader"`

	// Door latch configuration
	Door door.Config `yaml:"door"`

	// Egress button configuration
	Button button.Config `yaml:"button"`

	// Indicator configuration
	Indicator indicator.Config `yaml:"indicator"`

	// General settings
	ClientID      string `yaml:"client_id"`
	AuthorizedUID string `yaml:"authorized_uid"` // hex card serial, e.g. "53bf1019"
	PollMs        int    `yaml:"poll_ms"`        // reader poll interval, default 200
	CloseDelayMs  int    `yaml:"close_delay_ms"` // auto-close delay, default 3000
}

// AuthorizedUIDBytes decodes the configured card serial.
func (c *Config) AuthorizedUIDBytes() ([]byte, error) {
	if c.AuthorizedUID == "" {
		return nil, fmt.Errorf("authorized_uid missing in config file")
	}
	uid, err := hex.DecodeString(c.AuthorizedUID)
	if err != nil {
		return nil, fmt.Errorf("authorized_uid %q is not valid hex: %w", c.AuthorizedUID, err)
	}
	return uid, nil
}
