package report

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/remiblancher/ocspkit/internal/ocsp"
)

type testPKI struct {
	ca        *x509.Certificate
	caKey     crypto.Signer
	responder *x509.Certificate
	respKey   crypto.Signer
	leaf      *x509.Certificate
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	return k
}

func issue(t *testing.T, tmpl, parent *x509.Certificate, pub crypto.PublicKey, key crypto.Signer) *x509.Certificate {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	return cert
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()
	now := time.Now()

	caKey := newKey(t)
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Report Test CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	ca := issue(t, caTmpl, caTmpl, &caKey.PublicKey, caKey)

	respKey := newKey(t)
	responder := issue(t, &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "Report Test Responder"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageOCSPSigning},
	}, ca, &respKey.PublicKey, caKey)

	leafKey := newKey(t)
	leaf := issue(t, &x509.Certificate{
		SerialNumber: big.NewInt(0x1234),
		Subject:      pkix.Name{CommonName: "leaf.example.com"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
	}, ca, &leafKey.PublicKey, caKey)

	return &testPKI{ca: ca, caKey: caKey, responder: responder, respKey: respKey, leaf: leaf}
}

func (p *testPKI) certID(t *testing.T) *ocsp.CertID {
	t.Helper()
	id, err := ocsp.NewCertID(crypto.SHA256, p.leaf, p.ca)
	if err != nil {
		t.Fatalf("NewCertID() error = %v", err)
	}
	return id
}

// revokedResponse returns a DER envelope with a revoked entry for the leaf.
func (p *testPKI) revokedResponse(t *testing.T, nonce []byte) []byte {
	t.Helper()
	now := time.Now()
	b := ocsp.NewBuilder(p.responder, p.respKey).
		AddRevoked(p.certID(t), now.Add(-time.Minute), now.Add(time.Hour), now.Add(-24*time.Hour), ocsp.ReasonKeyCompromise)
	if nonce != nil {
		b.AddNonce(nonce)
	}
	basic, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	resp, err := ocsp.CreateResponse(ocsp.StatusSuccessful, basic)
	if err != nil {
		t.Fatalf("CreateResponse() error = %v", err)
	}
	der, err := resp.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return der
}
