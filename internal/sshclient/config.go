package sshclient

import (
	"time"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultPort    = 22
)

type Config struct {
	// Timeout bounds dial, handshake and command execution per host.
	Timeout time.Duration
	Port    int
	// KnownHostsFile enables host key checking when set.
	KnownHostsFile string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	if c.Port <= 0 {
		c.Port = DefaultPort
	}

	return c
}
