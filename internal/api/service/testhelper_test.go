package service

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/remiblancher/ocspkit/internal/api/dto"
	"github.com/remiblancher/ocspkit/internal/ocsp"
)

type testPKI struct {
	ca        *x509.Certificate
	caKey     crypto.Signer
	responder *x509.Certificate
	respKey   crypto.Signer
	leaf      *x509.Certificate
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

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	return k
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()
	now := time.Now()

	caKey := newKey(t)
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Service Test CA"},
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
		Subject:      pkix.Name{CommonName: "Service Test Responder"},
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

// goodResponse returns a DER envelope with a good entry for the leaf,
// identified with SHA-1.
func (p *testPKI) goodResponse(t *testing.T, thisUpdate time.Time, nonce []byte) []byte {
	t.Helper()
	id, err := ocsp.NewCertID(crypto.SHA1, p.leaf, p.ca)
	if err != nil {
		t.Fatalf("NewCertID() error = %v", err)
	}
	b := ocsp.NewBuilder(p.responder, p.respKey).AddGood(id, thisUpdate, thisUpdate.Add(time.Hour))
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

func pemData(cert *x509.Certificate) dto.BinaryData {
	return dto.BinaryData{Data: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))}
}
