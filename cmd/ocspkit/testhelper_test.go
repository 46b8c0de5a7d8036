package main

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

// executeCommand executes a Cobra command with the given args and returns output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	resetFlags()

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err = root.Execute()
	return buf.String(), err
}

// resetFlags resets every command flag to its default value.
// This is needed because Cobra retains flag values between test runs.
func resetFlags() {
	auditLogPath = ""

	requestIssuer = ""
	requestCerts = nil
	requestSerials = nil
	requestDigest = "sha1"
	requestNonce = false
	requestOutput = ""
	requestPEM = false
	requestInspectFormat = "text"

	signIssuer = ""
	signCert = ""
	signKey = ""
	signPassphrase = ""
	signSerials = nil
	signTargets = nil
	signRequest = ""
	signDigest = "sha1"
	signStatus = "good"
	signRevocationTime = ""
	signRevocationReason = ""
	signThisUpdate = ""
	signValidity = "1h"
	signNonce = ""
	signFlags = nil
	signExtraCerts = nil
	signBasicOnly = false
	signOutput = ""
	signPEM = false

	respondStatus = ""
	respondBody = ""
	respondOutput = ""
	respondPEM = false

	inspectFormat = "text"

	verifyIssuer = ""
	verifyCert = ""
	verifySerial = ""
	verifyConfigPath = ""
	verifyRoots = nil
	verifyResponders = nil
	verifyUntrusted = nil
	verifyFlags = nil
	verifyPurpose = nil
	verifyDigest = ""
	verifySkew = ""
	verifyMaxAge = ""
	verifyNonce = ""
	verifyAt = ""
	verifyFormat = "text"

	serveConfigPath = ""
	servePort = 0
	serveHost = ""
	serveH2C = false
	serveLogLevel = "info"

	keyGenAlgorithm = "ecdsa-p256"
	keyGenOutput = ""
	keyGenPassphrase = ""
	keyInfoPassphrase = ""

	auditLogFile = ""
}

// testContext holds test resources.
type testContext struct {
	t       *testing.T
	tempDir string
}

// newTestContext creates a new test context with a temp directory.
func newTestContext(t *testing.T) *testContext {
	t.Helper()
	return &testContext{t: t, tempDir: t.TempDir()}
}

// path returns a path within the temp directory.
func (tc *testContext) path(name string) string {
	return filepath.Join(tc.tempDir, name)
}

// writeFile writes content to a file in the temp directory.
func (tc *testContext) writeFile(name string, content []byte) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		tc.t.Fatalf("Failed to write file %s: %v", name, err)
	}
	return path
}

// writeCertPEM writes a certificate to a PEM file.
func (tc *testContext) writeCertPEM(name string, cert *x509.Certificate) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := x509util.SaveCertificates(path, cert); err != nil {
		tc.t.Fatalf("Failed to write certificate: %v", err)
	}
	return path
}

// writeKeyPEM writes a private key to a PEM file.
func (tc *testContext) writeKeyPEM(name string, key crypto.Signer) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := pkicrypto.SavePrivateKey(path, key, nil); err != nil {
		tc.t.Fatalf("Failed to write key: %v", err)
	}
	return path
}

// testPKI is a CA, a delegated responder and a leaf, written to disk.
type testPKI struct {
	caCert, caKey     string
	respCert, respKey string
	leafCert          string
	ca                *x509.Certificate
}

// leafSerial is the serial number of the test leaf, in ParseSerial form.
const leafSerial = "1234"

func generateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate ECDSA key: %v", err)
	}
	return priv
}

func issueCert(t *testing.T, tmpl, parent *x509.Certificate, pub crypto.PublicKey, key crypto.Signer) *x509.Certificate {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}
	return cert
}

// selfSignedCA creates a CA certificate valid three days either side of now.
func selfSignedCA(t *testing.T, cn string) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key := generateKey(t)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-72 * time.Hour),
		NotAfter:              time.Now().Add(72 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	return issueCert(t, tmpl, tmpl, &key.PublicKey, key), key
}

// setupPKI writes ca.crt, ca.key, responder.crt, responder.key and leaf.crt.
func (tc *testContext) setupPKI() *testPKI {
	tc.t.Helper()
	t := tc.t
	now := time.Now()

	ca, caKey := selfSignedCA(t, "CLI Test CA")

	respKey := generateKey(t)
	responder := issueCert(t, &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "CLI Test Responder"},
		NotBefore:    now.Add(-72 * time.Hour),
		NotAfter:     now.Add(72 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageOCSPSigning},
	}, ca, &respKey.PublicKey, caKey)

	leafKey := generateKey(t)
	leaf := issueCert(t, &x509.Certificate{
		SerialNumber: big.NewInt(0x1234),
		Subject:      pkix.Name{CommonName: "leaf.example.com"},
		NotBefore:    now.Add(-72 * time.Hour),
		NotAfter:     now.Add(72 * time.Hour),
	}, ca, &leafKey.PublicKey, caKey)

	return &testPKI{
		caCert:   tc.writeCertPEM("ca.crt", ca),
		caKey:    tc.writeKeyPEM("ca.key", caKey),
		respCert: tc.writeCertPEM("responder.crt", responder),
		respKey:  tc.writeKeyPEM("responder.key", respKey),
		leafCert: tc.writeCertPEM("leaf.crt", leaf),
		ca:       ca,
	}
}

// signResponse runs "sign" with the delegated responder plus extra args and
// returns the output path.
func (tc *testContext) signResponse(pki *testPKI, name string, extra ...string) string {
	tc.t.Helper()
	out := tc.path(name)
	args := append([]string{"sign",
		"--issuer", pki.caCert,
		"--cert", pki.respCert,
		"--key", pki.respKey,
		"--out", out,
	}, extra...)
	if _, err := executeCommand(rootCmd, args...); err != nil {
		tc.t.Fatalf("sign failed: %v", err)
	}
	return out
}

// =============================================================================
// Assertion Helpers
// =============================================================================

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// assertFileNotEmpty verifies that a file exists and is not empty.
func assertFileNotEmpty(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if len(data) == 0 {
		t.Errorf("file %s is empty", path)
	}
}
