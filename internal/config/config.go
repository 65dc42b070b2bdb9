package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config carries the server knobs. Flags are registered in cmd/server
// and bound to GUESSWHO_-prefixed environment variables via viper.
type Config struct {
	Bind string
	Port int

	// RevealTimeout bounds how long a round may sit in AwaitingReveal.
	// After one timeout the reveal request is re-broadcast; after a
	// second the round is forfeited. Zero disables the deadline.
	RevealTimeout time.Duration

	// RoomTTL is how long an idle room survives before the registry
	// sweeper drops it. Zero keeps rooms for the process lifetime.
	RoomTTL time.Duration

	Verbose bool
}

func Default() Config {
	return Config{
		Bind:          "0.0.0.0",
		Port:          8080,
		RevealTimeout: 2 * time.Minute,
		RoomTTL:       12 * time.Hour,
	}
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.RevealTimeout < 0 {
		return fmt.Errorf("reveal timeout must not be negative: %s", c.RevealTimeout)
	}
	if c.RoomTTL < 0 {
		return fmt.Errorf("room ttl must not be negative: %s", c.RoomTTL)
	}
	return nil
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}
