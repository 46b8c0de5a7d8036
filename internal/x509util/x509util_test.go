package x509util

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
)

func newSelfSigned(t *testing.T, cn string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	return cert
}

// =============================================================================
// [Unit] Certificate Loading Tests
// =============================================================================

func TestU_SaveCertificates_LoadCertificates(t *testing.T) {
	a := newSelfSigned(t, "A")
	b := newSelfSigned(t, "B")
	path := filepath.Join(t.TempDir(), "bundle.pem")

	if err := SaveCertificates(path, a, b); err != nil {
		t.Fatalf("SaveCertificates() error = %v", err)
	}

	certs, err := LoadCertificates(path)
	if err != nil {
		t.Fatalf("LoadCertificates() error = %v", err)
	}
	if len(certs) != 2 {
		t.Fatalf("LoadCertificates() returned %d certs, want 2", len(certs))
	}
	if !certs[0].Equal(a) || !certs[1].Equal(b) {
		t.Error("certificate order not preserved")
	}

	first, err := LoadCertificate(path)
	if err != nil {
		t.Fatalf("LoadCertificate() error = %v", err)
	}
	if !first.Equal(a) {
		t.Error("LoadCertificate() should return the first certificate")
	}
}

func TestU_LoadCertificates_DER(t *testing.T) {
	cert := newSelfSigned(t, "DER")
	path := filepath.Join(t.TempDir(), "cert.der")
	if err := os.WriteFile(path, cert.Raw, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := LoadCertificate(path)
	if err != nil {
		t.Fatalf("LoadCertificate() error = %v", err)
	}
	if !got.Equal(cert) {
		t.Error("DER certificate mismatch")
	}
}

func TestU_LoadCertificateFiles(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.pem")
	p2 := filepath.Join(dir, "b.pem")
	if err := SaveCertificates(p1, newSelfSigned(t, "A")); err != nil {
		t.Fatalf("SaveCertificates() error = %v", err)
	}
	if err := SaveCertificates(p2, newSelfSigned(t, "B"), newSelfSigned(t, "C")); err != nil {
		t.Fatalf("SaveCertificates() error = %v", err)
	}

	certs, err := LoadCertificateFiles([]string{p1, p2})
	if err != nil {
		t.Fatalf("LoadCertificateFiles() error = %v", err)
	}
	if len(certs) != 3 {
		t.Errorf("LoadCertificateFiles() returned %d certs, want 3", len(certs))
	}

	if _, err := LoadCertificateFiles([]string{p1, filepath.Join(dir, "missing.pem")}); err == nil {
		t.Error("LoadCertificateFiles() should fail on a missing file")
	}
}

func TestU_ParseCertificates_Invalid(t *testing.T) {
	keyOnly := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1, 2, 3}})
	badCert := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}})

	tests := []struct {
		name string
		data []byte
	}{
		{"[Unit] Parse: garbage DER", []byte{0x30, 0x01}},
		{"[Unit] Parse: PEM without certificates", keyOnly},
		{"[Unit] Parse: malformed certificate block", badCert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCertificates(tt.data); err == nil {
				t.Error("ParseCertificates() should fail")
			}
		})
	}
}

func TestU_ParseCertificatesPEM_SkipsOtherBlocks(t *testing.T) {
	cert := newSelfSigned(t, "Mixed")
	var buf bytes.Buffer
	_ = pem.Encode(&buf, &pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}})
	if err := WriteCertPEM(&buf, cert); err != nil {
		t.Fatalf("WriteCertPEM() error = %v", err)
	}

	certs, err := ParseCertificatesPEM(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseCertificatesPEM() error = %v", err)
	}
	if len(certs) != 1 || !certs[0].Equal(cert) {
		t.Error("expected exactly the certificate block")
	}
}

func TestU_DecodeDER(t *testing.T) {
	raw := []byte{0x30, 0x03, 0x02, 0x01, 0x01}
	if !bytes.Equal(DecodeDER(raw), raw) {
		t.Error("DecodeDER() should pass DER through")
	}
	wrapped := pem.EncodeToMemory(&pem.Block{Type: "OCSP RESPONSE", Bytes: raw})
	if !bytes.Equal(DecodeDER(wrapped), raw) {
		t.Error("DecodeDER() should unwrap PEM")
	}

	path := filepath.Join(t.TempDir(), "resp.pem")
	if err := os.WriteFile(path, wrapped, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := ReadDERFile(path)
	if err != nil {
		t.Fatalf("ReadDERFile() error = %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("ReadDERFile() mismatch")
	}
}

// =============================================================================
// [Unit] Detection Tests
// =============================================================================

func TestU_GetCertificateType(t *testing.T) {
	if got := GetCertificateType(nil); got != CertTypeUnknown {
		t.Errorf("GetCertificateType(nil) = %v, want Unknown", got)
	}
	if got := GetCertificateType(newSelfSigned(t, "EC")); got != CertTypeClassical {
		t.Errorf("GetCertificateType(EC) = %v, want Classical", got)
	}

	spki, err := asn1.Marshal(struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}{
		Algorithm: pkix.AlgorithmIdentifier{Algorithm: pkicrypto.OIDMLDSA65},
		PublicKey: asn1.BitString{Bytes: []byte{1, 2, 3}, BitLength: 24},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	pqc := &x509.Certificate{RawSubjectPublicKeyInfo: spki}
	if got := GetCertificateType(pqc); got != CertTypePQC {
		t.Errorf("GetCertificateType(ML-DSA) = %v, want PQC", got)
	}

	oid, err := ExtractSPKIAlgorithmOID(spki)
	if err != nil {
		t.Fatalf("ExtractSPKIAlgorithmOID() error = %v", err)
	}
	if !oid.Equal(pkicrypto.OIDMLDSA65) {
		t.Errorf("ExtractSPKIAlgorithmOID() = %v", oid)
	}
}

func TestU_CertificateType_String(t *testing.T) {
	tests := []struct {
		typ  CertificateType
		want string
	}{
		{CertTypeClassical, "Classical"},
		{CertTypePQC, "PQC"},
		{CertTypeUnknown, "Unknown"},
		{CertificateType(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestU_AlgorithmName(t *testing.T) {
	tests := []struct {
		name string
		oid  asn1.ObjectIdentifier
		want string
	}{
		{"[Unit] Name: ECDSA", pkicrypto.OIDECDSAWithSHA256, "ecdsa-with-SHA256"},
		{"[Unit] Name: ML-DSA", pkicrypto.OIDMLDSA87, "ML-DSA-87"},
		{"[Unit] Name: SLH-DSA", pkicrypto.OIDSLHDSA128f, "SLH-DSA-SHA2-128f"},
		{"[Unit] Name: unknown", asn1.ObjectIdentifier{1, 2, 3}, "1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlgorithmName(tt.oid); got != tt.want {
				t.Errorf("AlgorithmName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// [Unit] Serial Tests
// =============================================================================

func TestU_ParseSerial(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1234", 0x1234, false},
		{"0x0A1B", 0x0a1b, false},
		{"12:34:56", 0x123456, false},
		{"abc", 0xabc, false},
		{"", 0, true},
		{"zz", 0, true},
	}
	for _, tt := range tests {
		t.Run("[Unit] Serial: "+tt.in, func(t *testing.T) {
			got, err := ParseSerial(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSerial() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.Int64() != tt.want {
				t.Errorf("ParseSerial() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestU_FormatSerial(t *testing.T) {
	if got := FormatSerial(big.NewInt(0x0abc)); got != "0ABC" {
		t.Errorf("FormatSerial() = %q, want 0ABC", got)
	}
	if got := FormatSerial(big.NewInt(0)); got != "00" {
		t.Errorf("FormatSerial(0) = %q, want 00", got)
	}
	if got := FormatSerial(nil); got != "" {
		t.Errorf("FormatSerial(nil) = %q", got)
	}
}
