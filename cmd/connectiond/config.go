package main

import (
	"fmt"
)

// Config holds the process-level settings connectiond needs before it
// can start serving: listen address and the TAI/leap-second offset the
// SystemClock applies to the host wall clock.
type Config struct {
	listenAddr  string
	leapSeconds int64
}

// Option configures a Config at construction time, the same
// functional-options shape the connection engine's own constructors use
// for TransceiverState.
type Option func(*Config) error

// NewConfig builds a Config with a default :8080 listen address and a
// zero leap-second offset, applying each Option in order.
func NewConfig(options ...Option) (*Config, error) {
	c := &Config{
		listenAddr:  ":8080",
		leapSeconds: 0,
	}
	for _, o := range options {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithListenAddr overrides the HTTP listen address.
func WithListenAddr(addr string) Option {
	return func(c *Config) error {
		if addr == "" {
			return fmt.Errorf("config: listen address must not be empty")
		}
		c.listenAddr = addr
		return nil
	}
}

// WithLeapSeconds overrides the TAI leap-second offset the SystemClock
// applies to host wall-clock time.
func WithLeapSeconds(n int64) Option {
	return func(c *Config) error {
		c.leapSeconds = n
		return nil
	}
}
