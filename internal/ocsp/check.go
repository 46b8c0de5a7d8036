package ocsp

import (
	"bytes"
	"crypto/x509"
	"math"
	"time"
)

// CheckConfig contains options for Check.
type CheckConfig struct {
	// Certs are additional untrusted certificates used to find the signer
	// and build its chain.
	Certs []*x509.Certificate

	// Store holds the trust anchors. Required unless Flags skip chain verification.
	Store *TrustStore

	// Flags modify verification.
	Flags TrustFlags

	// Skew is the tolerated clock skew for the status time window. Negative
	// values are rejected.
	Skew time.Duration

	// MaxAge bounds the age of thisUpdate. Zero or negative disables the check.
	MaxAge time.Duration

	// Nonce, when set, must equal the response nonce.
	Nonce []byte

	// Clock supplies "now" for the time window. Nil means time.Now.
	Clock Clock
}

// CheckResult contains the outcome of a successful Check.
type CheckResult struct {
	Status      Status
	ProducedAt  time.Time
	ResponderID ResponderID
	Signer      *x509.Certificate
}

// Check runs the full client pipeline on a DER response: envelope status,
// basic response extraction, signature and signer trust, status lookup for
// id, optional nonce match, and the status time window.
func Check(der []byte, id *CertID, cfg CheckConfig) (*CheckResult, error) {
	resp, err := ParseResponse(der)
	if err != nil {
		return nil, err
	}
	basic, err := resp.Basic()
	if err != nil {
		return nil, err
	}
	if err := basic.Verify(cfg.Certs, cfg.Store, cfg.Flags); err != nil {
		return nil, err
	}

	status, ok := basic.FindStatus(id)
	if !ok {
		return nil, errorf("check", ErrStatus, "no status for %s in response", id)
	}

	if cfg.Nonce != nil && !bytes.Equal(cfg.Nonce, basic.Nonce()) {
		return nil, errorf("check", ErrVerification, "response nonce does not match request")
	}

	nsec := cfg.Skew / time.Second
	if cfg.Skew < 0 || nsec > math.MaxUint32 {
		return nil, errorf("check", ErrTimeValidity, "clock skew %s out of range", cfg.Skew)
	}

	now := time.Now()
	if cfg.Clock != nil {
		now = cfg.Clock()
	}
	maxsec := NoMaxAge
	if cfg.MaxAge > 0 {
		maxsec = int64(cfg.MaxAge / time.Second)
	}
	if err := status.CheckValidityAt(now, uint32(nsec), maxsec); err != nil {
		return nil, err
	}

	signer, _ := basic.findSigner(cfg.Certs, cfg.Flags)
	return &CheckResult{
		Status:      *status,
		ProducedAt:  basic.ProducedAt(),
		ResponderID: basic.ResponderID(),
		Signer:      signer,
	}, nil
}
