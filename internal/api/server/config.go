// Package server provides HTTP server configuration and lifecycle management.
package server

import (
	"fmt"
	"time"

	"github.com/remiblancher/ocspkit/internal/config"
)

// Config holds the server configuration.
type Config struct {
	// Port is the HTTP port.
	Port int

	// Host is the address to bind to (default: "").
	Host string

	// H2C serves cleartext HTTP/2 alongside HTTP/1.1. Ignored with TLS.
	H2C bool

	// TLS configuration (optional)
	TLSCert string
	TLSKey  string

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return FromProfile(config.Default().Server)
}

// FromProfile converts the server section of a profile.
func FromProfile(sc config.ServerConfig) *Config {
	return &Config{
		Port:            sc.Port,
		Host:            sc.Host,
		H2C:             sc.H2C,
		TLSCert:         sc.TLSCert,
		TLSKey:          sc.TLSKey,
		MaxBodyBytes:    sc.MaxBodyBytes,
		ReadTimeout:     sc.ReadTimeout.Std(),
		WriteTimeout:    sc.WriteTimeout.Std(),
		IdleTimeout:     sc.IdleTimeout.Std(),
		ShutdownTimeout: sc.ShutdownTimeout.Std(),
	}
}

// Address returns the full listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TLSEnabled reports whether both TLS files are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}
