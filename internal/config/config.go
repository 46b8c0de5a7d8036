// Package config loads OCSP verification profiles from YAML.
package config

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
	"github.com/remiblancher/ocspkit/internal/ocsp"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

// Config is a verification profile: which anchors to trust, how to bend the
// verifier, and how strict to be about time.
type Config struct {
	Trust    TrustConfig    `yaml:"trust"`
	Flags    []string       `yaml:"flags,omitempty"`
	Validity ValidityConfig `yaml:"validity"`
	Digest   string         `yaml:"digest,omitempty"`
	Server   ServerConfig   `yaml:"server"`

	// AuditLog is the path of the hash-chained audit log. Empty disables it.
	AuditLog string `yaml:"audit_log,omitempty"`
}

// TrustConfig lists the certificate files that make up the trust store.
type TrustConfig struct {
	// Roots are PEM bundles of trust anchors.
	Roots []string `yaml:"roots,omitempty"`

	// Responders are PEM bundles of explicitly trusted responder certificates.
	Responders []string `yaml:"responders,omitempty"`

	// Untrusted are PEM bundles offered as chain intermediates and signer
	// candidates.
	Untrusted []string `yaml:"untrusted,omitempty"`

	// Purpose lists the extended key usages required along the signer chain.
	Purpose []string `yaml:"purpose,omitempty"`

	// MaxDepth limits the chain length above the signer. Zero keeps the default.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// ValidityConfig controls the status time window check.
type ValidityConfig struct {
	Skew Duration `yaml:"skew,omitempty"`

	// MaxAge bounds the age of thisUpdate. Nil disables the check.
	MaxAge *Duration `yaml:"max_age,omitempty"`
}

// ServerConfig configures the HTTP verification API.
type ServerConfig struct {
	Host            string   `yaml:"host,omitempty"`
	Port            int      `yaml:"port,omitempty"`
	H2C             bool     `yaml:"h2c,omitempty"`
	ReadTimeout     Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    Duration `yaml:"write_timeout,omitempty"`
	IdleTimeout     Duration `yaml:"idle_timeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout,omitempty"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes,omitempty"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `yaml:"tls_cert,omitempty"`
	TLSKey  string `yaml:"tls_key,omitempty"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns a profile with the built-in defaults and no trust anchors.
func Default() *Config {
	return &Config{
		Trust: TrustConfig{MaxDepth: ocsp.DefaultMaxDepth},
		Validity: ValidityConfig{
			Skew: Duration(5 * time.Minute),
		},
		Digest: "sha1",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(120 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			MaxBodyBytes:    1 << 20,
		},
	}
}

// Load reads a profile from path. Fields absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks names and ranges without touching the file system.
func (c *Config) Validate() error {
	if _, err := ocsp.ParseTrustFlags(c.Flags); err != nil {
		return err
	}
	if _, err := ParsePurposes(c.Trust.Purpose); err != nil {
		return err
	}
	if _, err := c.Hash(); err != nil {
		return err
	}
	if c.Trust.MaxDepth < 0 {
		return fmt.Errorf("trust.max_depth must not be negative")
	}
	if c.Validity.Skew < 0 {
		return fmt.Errorf("validity.skew must not be negative")
	}
	if c.Validity.MaxAge != nil && *c.Validity.MaxAge < 0 {
		return fmt.Errorf("validity.max_age must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("server.tls_cert and server.tls_key must be set together")
	}
	return nil
}

// TrustFlags returns the parsed verification flags.
func (c *Config) TrustFlags() (ocsp.TrustFlags, error) {
	return ocsp.ParseTrustFlags(c.Flags)
}

// Hash returns the CertID digest algorithm.
func (c *Config) Hash() (crypto.Hash, error) {
	if c.Digest == "" {
		return crypto.SHA1, nil
	}
	return pkicrypto.ParseHash(c.Digest)
}

// MaxAge returns the configured maximum age, or zero when disabled.
func (c *Config) MaxAge() time.Duration {
	if c.Validity.MaxAge == nil {
		return 0
	}
	return c.Validity.MaxAge.Std()
}

// TrustStore loads the configured certificates into a trust store and returns
// the untrusted certificates alongside it.
func (c *Config) TrustStore() (*ocsp.TrustStore, []*x509.Certificate, error) {
	roots, err := x509util.LoadCertificateFiles(c.Trust.Roots)
	if err != nil {
		return nil, nil, fmt.Errorf("trust.roots: %w", err)
	}
	responders, err := x509util.LoadCertificateFiles(c.Trust.Responders)
	if err != nil {
		return nil, nil, fmt.Errorf("trust.responders: %w", err)
	}
	untrusted, err := x509util.LoadCertificateFiles(c.Trust.Untrusted)
	if err != nil {
		return nil, nil, fmt.Errorf("trust.untrusted: %w", err)
	}
	purposes, err := ParsePurposes(c.Trust.Purpose)
	if err != nil {
		return nil, nil, err
	}

	store := ocsp.NewTrustStore(roots...)
	for _, r := range responders {
		store.AddTrustedResponder(r)
	}
	store.Purpose = purposes
	if c.Trust.MaxDepth > 0 {
		store.MaxDepth = c.Trust.MaxDepth
	}
	return store, untrusted, nil
}

// CheckConfig assembles the options for ocsp.Check.
func (c *Config) CheckConfig() (ocsp.CheckConfig, error) {
	flags, err := c.TrustFlags()
	if err != nil {
		return ocsp.CheckConfig{}, err
	}
	store, untrusted, err := c.TrustStore()
	if err != nil {
		return ocsp.CheckConfig{}, err
	}
	return ocsp.CheckConfig{
		Certs:  untrusted,
		Store:  store,
		Flags:  flags,
		Skew:   c.Validity.Skew.Std(),
		MaxAge: c.MaxAge(),
	}, nil
}

var purposeNames = map[string]x509.ExtKeyUsage{
	"any":             x509.ExtKeyUsageAny,
	"ocspsigning":     x509.ExtKeyUsageOCSPSigning,
	"serverauth":      x509.ExtKeyUsageServerAuth,
	"clientauth":      x509.ExtKeyUsageClientAuth,
	"codesigning":     x509.ExtKeyUsageCodeSigning,
	"emailprotection": x509.ExtKeyUsageEmailProtection,
	"timestamping":    x509.ExtKeyUsageTimeStamping,
}

// ParsePurposes maps purpose names (case-insensitive, e.g. "ocspSigning") to
// extended key usages.
func ParsePurposes(names []string) ([]x509.ExtKeyUsage, error) {
	var out []x509.ExtKeyUsage
	for _, n := range names {
		eku, ok := purposeNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown purpose: %s", n)
		}
		out = append(out, eku)
	}
	return out, nil
}
