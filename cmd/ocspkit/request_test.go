package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/remiblancher/ocspkit/internal/ocsp"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

// =============================================================================
// Request Tests
// =============================================================================

func TestF_Request_CertAndSerial(t *testing.T) {
	tc := newTestContext(t)
	pki := tc.setupPKI()
	out := tc.path("req.der")

	output, err := executeCommand(rootCmd, "request",
		"--issuer", pki.caCert,
		"--cert", pki.leafCert,
		"--serial", "0A0B",
		"--nonce",
		"--out", out,
	)
	assertNoError(t, err)
	assertFileNotEmpty(t, out)

	if !strings.Contains(output, "OCSP request written to") || !strings.Contains(output, "Certificate ID #2:") {
		t.Errorf("unexpected output:\n%s", output)
	}

	der, err := x509util.ReadDERFile(out)
	assertNoError(t, err)
	req, err := ocsp.ParseRequest(der)
	assertNoError(t, err)
	if req.Len() != 2 {
		t.Errorf("Len() = %d, want 2", req.Len())
	}
	if len(req.Nonce()) != 16 {
		t.Errorf("nonce length = %d, want 16", len(req.Nonce()))
	}
	if got := x509util.FormatSerial(req.SingleRequests()[0].ReqCert.SerialNumber); got != leafSerial {
		t.Errorf("first serial = %s, want %s", got, leafSerial)
	}
}

func TestF_Request_PEMAndInspect(t *testing.T) {
	tc := newTestContext(t)
	pki := tc.setupPKI()
	out := tc.path("req.pem")

	_, err := executeCommand(rootCmd, "request",
		"--issuer", pki.caCert,
		"--serial", leafSerial,
		"--digest", "sha256",
		"--pem",
		"--out", out,
	)
	assertNoError(t, err)

	output, err := executeCommand(rootCmd, "request", "inspect", out, "--format", "json")
	assertNoError(t, err)

	var info struct {
		Entries []struct {
			HashAlgorithm string `json:"hash_algorithm"`
			Serial        string `json:"serial"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, output)
	}
	if len(info.Entries) != 1 || info.Entries[0].HashAlgorithm != "sha256" || info.Entries[0].Serial != leafSerial {
		t.Errorf("entries = %+v", info.Entries)
	}
}

func TestF_Request_Errors(t *testing.T) {
	tc := newTestContext(t)
	pki := tc.setupPKI()

	tests := []struct {
		name string
		args []string
	}{
		{"[Functional] Request: no target", []string{"--issuer", pki.caCert}},
		{"[Functional] Request: invalid serial", []string{"--issuer", pki.caCert, "--serial", "not-hex"}},
		{"[Functional] Request: unknown digest", []string{"--issuer", pki.caCert, "--serial", "01", "--digest", "md4"}},
		{"[Functional] Request: missing issuer file", []string{"--issuer", tc.path("missing.crt"), "--serial", "01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"request", "--out", tc.path("req.der")}, tt.args...)
			_, err := executeCommand(rootCmd, args...)
			assertError(t, err)
		})
	}
}
