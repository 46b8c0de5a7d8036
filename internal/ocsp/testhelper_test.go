package ocsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
)

// testKeyPair holds a key pair for testing.
type testKeyPair struct {
	PrivateKey crypto.Signer
	PublicKey  crypto.PublicKey
}

// generateECDSAKeyPair generates an ECDSA key pair for testing.
func generateECDSAKeyPair(t *testing.T, curve elliptic.Curve) *testKeyPair {
	t.Helper()
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate ECDSA key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: &priv.PublicKey}
}

// generateRSAKeyPair generates an RSA key pair for testing.
func generateRSAKeyPair(t *testing.T, bits int) *testKeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: &priv.PublicKey}
}

// generateEd25519KeyPair generates an Ed25519 key pair for testing.
func generateEd25519KeyPair(t *testing.T) *testKeyPair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 key: %v", err)
	}
	return &testKeyPair{PrivateKey: priv, PublicKey: pub}
}

func randomSerial(t *testing.T) *big.Int {
	t.Helper()
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("Failed to generate serial number: %v", err)
	}
	return serialNumber
}

func createCert(t *testing.T, template, parent *x509.Certificate, pub crypto.PublicKey, parentKey crypto.Signer) *x509.Certificate {
	t.Helper()
	certDER, err := x509.CreateCertificate(rand.Reader, template, parent, pub, parentKey)
	if err != nil {
		t.Fatalf("Failed to create certificate %q: %v", template.Subject.CommonName, err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}
	return cert
}

// generateTestCA creates a self-signed test CA certificate and key pair.
func generateTestCA(t *testing.T, name string) (*x509.Certificate, crypto.Signer) {
	t.Helper()
	kp := generateECDSAKeyPair(t, elliptic.P256())
	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   name,
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
	}
	return createCert(t, template, template, kp.PublicKey, kp.PrivateKey), kp.PrivateKey
}

// issueTestCertificate issues an end-entity certificate signed by a CA.
func issueTestCertificate(t *testing.T, caCert *x509.Certificate, caKey crypto.Signer) *x509.Certificate {
	t.Helper()
	kp := generateECDSAKeyPair(t, elliptic.P256())
	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   "Test End Entity",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	return createCert(t, template, caCert, kp.PublicKey, caKey)
}

// generateOCSPResponderCert creates a delegated OCSP responder certificate.
func generateOCSPResponderCert(t *testing.T, caCert *x509.Certificate, caKey crypto.Signer, kp *testKeyPair, withEKU bool) *x509.Certificate {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   "Test OCSP Responder",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	if withEKU {
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageOCSPSigning}
	}
	return createCert(t, template, caCert, kp.PublicKey, caKey)
}

// testPKI is a CA with a delegated responder and two leaf certificates.
type testPKI struct {
	CA           *x509.Certificate
	CAKey        crypto.Signer
	Responder    *x509.Certificate
	ResponderKey crypto.Signer
	Leaf         *x509.Certificate
	Leaf2        *x509.Certificate
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()
	caCert, caKey := generateTestCA(t, "Test CA")
	kp := generateECDSAKeyPair(t, elliptic.P256())
	return &testPKI{
		CA:           caCert,
		CAKey:        caKey,
		Responder:    generateOCSPResponderCert(t, caCert, caKey, kp, true),
		ResponderKey: kp.PrivateKey,
		Leaf:         issueTestCertificate(t, caCert, caKey),
		Leaf2:        issueTestCertificate(t, caCert, caKey),
	}
}

func (p *testPKI) certID(t *testing.T, cert *x509.Certificate) *CertID {
	t.Helper()
	id, err := NewCertID(crypto.SHA256, cert, p.CA)
	if err != nil {
		t.Fatalf("NewCertID() error = %v", err)
	}
	return id
}

// goodResponse builds a delegated-responder response with a good entry for Leaf.
func (p *testPKI) goodResponse(t *testing.T, flags TrustFlags) *BasicResponse {
	t.Helper()
	now := time.Now()
	basic, err := NewBuilder(p.Responder, p.ResponderKey).
		AddGood(p.certID(t, p.Leaf), now.Add(-time.Minute), now.Add(time.Hour)).
		Build(flags)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return basic
}

// =============================================================================
// PQC Test Helpers
// =============================================================================

// generatePQCOCSPResponderCert creates an OCSP responder certificate with a
// PQC key. Go's x509 cannot create these, so the certificate is built manually
// and self-signed with the PQC key under the CA's name.
func generatePQCOCSPResponderCert(t *testing.T, caCert *x509.Certificate, signer crypto.Signer) *x509.Certificate {
	t.Helper()

	spkiBytes, err := pkicrypto.MarshalPQCPublicKey(signer.Public())
	if err != nil {
		t.Fatalf("Failed to marshal public key: %v", err)
	}
	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(spkiBytes, &spki); err != nil {
		t.Fatalf("Failed to parse SPKI: %v", err)
	}
	sigOID := spki.Algorithm.Algorithm

	subject := pkix.Name{CommonName: "Test PQC OCSP Responder", Organization: []string{"Test Org"}}
	tbs := struct {
		Version            int `asn1:"optional,explicit,default:0,tag:0"`
		SerialNumber       *big.Int
		SignatureAlgorithm pkix.AlgorithmIdentifier
		Issuer             asn1.RawValue
		Validity           struct {
			NotBefore, NotAfter time.Time
		}
		Subject              pkix.RDNSequence
		SubjectPublicKeyInfo asn1.RawValue
	}{
		Version:            2, // v3
		SerialNumber:       randomSerial(t),
		SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: sigOID},
		Issuer:             asn1.RawValue{FullBytes: caCert.RawSubject},
		Validity: struct {
			NotBefore, NotAfter time.Time
		}{
			NotBefore: time.Now().Add(-1 * time.Hour).UTC().Truncate(time.Second),
			NotAfter:  time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
		},
		Subject:              subject.ToRDNSequence(),
		SubjectPublicKeyInfo: asn1.RawValue{FullBytes: spkiBytes},
	}

	tbsBytes, err := asn1.Marshal(tbs)
	if err != nil {
		t.Fatalf("Failed to marshal TBSCertificate: %v", err)
	}
	signature, _, err := pkicrypto.SignData(signer, tbsBytes)
	if err != nil {
		t.Fatalf("Failed to sign TBSCertificate: %v", err)
	}

	certDER, err := asn1.Marshal(struct {
		TBSCertificate     asn1.RawValue
		SignatureAlgorithm pkix.AlgorithmIdentifier
		SignatureValue     asn1.BitString
	}{
		TBSCertificate:     asn1.RawValue{FullBytes: tbsBytes},
		SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: sigOID},
		SignatureValue:     asn1.BitString{Bytes: signature, BitLength: len(signature) * 8},
	})
	if err != nil {
		t.Fatalf("Failed to marshal certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}
	return cert
}
