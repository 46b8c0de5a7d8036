package ocsp

import (
	"crypto/x509"
	"time"
)

// DefaultMaxDepth is the default limit on the number of certificates above
// the signer in a verified chain.
const DefaultMaxDepth = 8

// TrustStore holds the trust anchors and chain parameters used by Verify.
type TrustStore struct {
	roots      *x509.CertPool
	anchors    []*x509.Certificate
	responders []*x509.Certificate

	// Purpose lists the extended key usages the signer chain must allow.
	// Empty means any usage.
	Purpose []x509.ExtKeyUsage

	// MaxDepth limits the number of certificates above the signer. Zero or
	// negative means unlimited.
	MaxDepth int

	// Clock supplies the verification time. Nil means time.Now.
	Clock Clock
}

// NewTrustStore creates a store trusting the given roots.
func NewTrustStore(roots ...*x509.Certificate) *TrustStore {
	s := &TrustStore{
		roots:    x509.NewCertPool(),
		MaxDepth: DefaultMaxDepth,
	}
	for _, r := range roots {
		s.AddRoot(r)
	}
	return s
}

// AddRoot adds a trust anchor.
func (s *TrustStore) AddRoot(cert *x509.Certificate) {
	if cert == nil || s.contains(s.anchors, cert) {
		return
	}
	s.roots.AddCert(cert)
	s.anchors = append(s.anchors, cert)
}

// AddTrustedResponder marks cert as explicitly trusted to sign OCSP responses
// for any issuer. The certificate also becomes a trust anchor.
func (s *TrustStore) AddTrustedResponder(cert *x509.Certificate) {
	if cert == nil {
		return
	}
	s.AddRoot(cert)
	if !s.contains(s.responders, cert) {
		s.responders = append(s.responders, cert)
	}
}

// Roots returns the trust anchors.
func (s *TrustStore) Roots() []*x509.Certificate {
	out := make([]*x509.Certificate, len(s.anchors))
	copy(out, s.anchors)
	return out
}

// TrustedResponders returns the explicitly trusted responder certificates.
func (s *TrustStore) TrustedResponders() []*x509.Certificate {
	out := make([]*x509.Certificate, len(s.responders))
	copy(out, s.responders)
	return out
}

func (s *TrustStore) isTrustedResponder(cert *x509.Certificate) bool {
	return s.contains(s.responders, cert)
}

func (s *TrustStore) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *TrustStore) keyUsages() []x509.ExtKeyUsage {
	if len(s.Purpose) == 0 {
		return []x509.ExtKeyUsage{x509.ExtKeyUsageAny}
	}
	return s.Purpose
}

func (s *TrustStore) contains(list []*x509.Certificate, cert *x509.Certificate) bool {
	for _, c := range list {
		if c.Equal(cert) {
			return true
		}
	}
	return false
}
