package x509util

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
)

// ExtractSPKIAlgorithmOID extracts the algorithm OID from RawSubjectPublicKeyInfo.
func ExtractSPKIAlgorithmOID(rawSPKI []byte) (asn1.ObjectIdentifier, error) {
	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(rawSPKI, &spki); err != nil {
		return nil, err
	}
	return spki.Algorithm.Algorithm, nil
}

// CertificateType represents the cryptographic family of a certificate key.
type CertificateType int

const (
	CertTypeUnknown CertificateType = iota
	// CertTypeClassical covers ECDSA, RSA and Ed25519.
	CertTypeClassical
	// CertTypePQC covers ML-DSA and SLH-DSA.
	CertTypePQC
)

func (t CertificateType) String() string {
	switch t {
	case CertTypeClassical:
		return "Classical"
	case CertTypePQC:
		return "PQC"
	default:
		return "Unknown"
	}
}

// GetCertificateType classifies cert by its SPKI algorithm. Go's x509 leaves
// PublicKey nil for PQC keys, so the OID decides.
func GetCertificateType(cert *x509.Certificate) CertificateType {
	if cert == nil {
		return CertTypeUnknown
	}
	oid, err := ExtractSPKIAlgorithmOID(cert.RawSubjectPublicKeyInfo)
	if err == nil && pkicrypto.IsPQCAlgorithm(oid) {
		return CertTypePQC
	}
	if cert.PublicKey != nil {
		return CertTypeClassical
	}
	return CertTypeUnknown
}

var algorithmNames = []struct {
	oid  asn1.ObjectIdentifier
	name string
}{
	{pkicrypto.OIDSHA1WithRSA, "sha1WithRSAEncryption"},
	{pkicrypto.OIDSHA256WithRSA, "sha256WithRSAEncryption"},
	{pkicrypto.OIDSHA384WithRSA, "sha384WithRSAEncryption"},
	{pkicrypto.OIDSHA512WithRSA, "sha512WithRSAEncryption"},
	{pkicrypto.OIDRSAPSS, "rsassaPss"},
	{pkicrypto.OIDECDSAWithSHA1, "ecdsa-with-SHA1"},
	{pkicrypto.OIDECDSAWithSHA256, "ecdsa-with-SHA256"},
	{pkicrypto.OIDECDSAWithSHA384, "ecdsa-with-SHA384"},
	{pkicrypto.OIDECDSAWithSHA512, "ecdsa-with-SHA512"},
	{pkicrypto.OIDEd25519, "Ed25519"},
	{pkicrypto.OIDMLDSA44, "ML-DSA-44"},
	{pkicrypto.OIDMLDSA65, "ML-DSA-65"},
	{pkicrypto.OIDMLDSA87, "ML-DSA-87"},
	{pkicrypto.OIDSLHDSA128s, "SLH-DSA-SHA2-128s"},
	{pkicrypto.OIDSLHDSA128f, "SLH-DSA-SHA2-128f"},
	{pkicrypto.OIDSLHDSA192s, "SLH-DSA-SHA2-192s"},
	{pkicrypto.OIDSLHDSA192f, "SLH-DSA-SHA2-192f"},
	{pkicrypto.OIDSLHDSA256s, "SLH-DSA-SHA2-256s"},
	{pkicrypto.OIDSLHDSA256f, "SLH-DSA-SHA2-256f"},
}

// AlgorithmName returns a display name for a signature algorithm OID, falling
// back to its dotted form.
func AlgorithmName(oid asn1.ObjectIdentifier) string {
	for _, a := range algorithmNames {
		if a.oid.Equal(oid) {
			return a.name
		}
	}
	return oid.String()
}
