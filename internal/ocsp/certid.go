package ocsp

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
)

// CertID identifies a certificate by issuer and serial number.
// CertID ::= SEQUENCE {
//
//	hashAlgorithm       AlgorithmIdentifier,
//	issuerNameHash      OCTET STRING,
//	issuerKeyHash       OCTET STRING,
//	serialNumber        CertificateSerialNumber }
type CertID struct {
	HashAlgorithm  pkix.AlgorithmIdentifier
	IssuerNameHash []byte
	IssuerKeyHash  []byte
	SerialNumber   *big.Int
}

// NewCertID creates a CertID for subject as issued by issuer. The issuer is
// not checked against the subject's issuer field.
func NewCertID(hashAlg crypto.Hash, subject, issuer *x509.Certificate) (*CertID, error) {
	if subject == nil || issuer == nil {
		return nil, errorf("new cert id", ErrCrypto, "subject and issuer are required")
	}
	return NewCertIDFromSerial(hashAlg, issuer, subject.SerialNumber)
}

// NewCertIDFromSerial creates a CertID for a serial number from the given issuer.
func NewCertIDFromSerial(hashAlg crypto.Hash, issuer *x509.Certificate, serial *big.Int) (*CertID, error) {
	const op = "new cert id"

	if issuer == nil {
		return nil, errorf(op, ErrCrypto, "issuer is required")
	}
	hashOID, err := pkicrypto.HashOID(hashAlg)
	if err != nil {
		return nil, newError(op, ErrCrypto, err)
	}

	nameHash, keyHash, err := issuerHashes(hashAlg, issuer)
	if err != nil {
		return nil, newError(op, ErrCrypto, err)
	}

	id := &CertID{
		HashAlgorithm: pkix.AlgorithmIdentifier{
			Algorithm:  hashOID,
			Parameters: asn1.NullRawValue,
		},
		IssuerNameHash: nameHash,
		IssuerKeyHash:  keyHash,
	}
	if serial != nil {
		id.SerialNumber = new(big.Int).Set(serial)
	}
	return id, nil
}

// issuerHashes computes issuerNameHash and issuerKeyHash. RFC 6960: the key
// hash covers the value (excluding tag, length and unused bits octet) of the
// subjectPublicKey BIT STRING.
func issuerHashes(hashAlg crypto.Hash, issuer *x509.Certificate) ([]byte, []byte, error) {
	nameHash, err := pkicrypto.Digest(hashAlg, issuer.RawSubject)
	if err != nil {
		return nil, nil, err
	}

	pubKeyBytes, err := subjectPublicKeyBytes(issuer)
	if err != nil {
		return nil, nil, err
	}
	keyHash, err := pkicrypto.Digest(hashAlg, pubKeyBytes)
	if err != nil {
		return nil, nil, err
	}
	return nameHash, keyHash, nil
}

func subjectPublicKeyBytes(cert *x509.Certificate) ([]byte, error) {
	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(cert.RawSubjectPublicKeyInfo, &spki); err != nil {
		return nil, fmt.Errorf("failed to parse SubjectPublicKeyInfo: %w", err)
	}
	return spki.PublicKey.Bytes, nil
}

// Hash returns the digest algorithm named by the CertID.
func (id *CertID) Hash() (crypto.Hash, error) {
	return pkicrypto.HashFromOID(id.HashAlgorithm.Algorithm)
}

// Equal reports whether both identifiers name the same certificate under the
// same digest: hash OID, both hashes and the serial must match exactly.
func (id *CertID) Equal(other *CertID) bool {
	if id == nil || other == nil {
		return id == other
	}
	if !id.HashAlgorithm.Algorithm.Equal(other.HashAlgorithm.Algorithm) {
		return false
	}
	if !bytes.Equal(id.IssuerNameHash, other.IssuerNameHash) ||
		!bytes.Equal(id.IssuerKeyHash, other.IssuerKeyHash) {
		return false
	}
	if id.SerialNumber == nil || other.SerialNumber == nil {
		return id.SerialNumber == other.SerialNumber
	}
	return id.SerialNumber.Cmp(other.SerialNumber) == 0
}

// MatchesIssuer checks if the CertID's issuer hashes match the given issuer.
func (id *CertID) MatchesIssuer(issuer *x509.Certificate) bool {
	hashAlg, err := id.Hash()
	if err != nil {
		return false
	}
	nameHash, keyHash, err := issuerHashes(hashAlg, issuer)
	if err != nil {
		return false
	}
	return bytes.Equal(id.IssuerNameHash, nameHash) && bytes.Equal(id.IssuerKeyHash, keyHash)
}

// Clone returns a deep copy of the CertID.
func (id *CertID) Clone() CertID {
	c := CertID{
		HashAlgorithm: pkix.AlgorithmIdentifier{
			Algorithm: append(asn1.ObjectIdentifier(nil), id.HashAlgorithm.Algorithm...),
			Parameters: asn1.RawValue{
				Class:      id.HashAlgorithm.Parameters.Class,
				Tag:        id.HashAlgorithm.Parameters.Tag,
				IsCompound: id.HashAlgorithm.Parameters.IsCompound,
				Bytes:      bytes.Clone(id.HashAlgorithm.Parameters.Bytes),
				FullBytes:  bytes.Clone(id.HashAlgorithm.Parameters.FullBytes),
			},
		},
		IssuerNameHash: bytes.Clone(id.IssuerNameHash),
		IssuerKeyHash:  bytes.Clone(id.IssuerKeyHash),
	}
	if id.SerialNumber != nil {
		c.SerialNumber = new(big.Int).Set(id.SerialNumber)
	}
	return c
}

// String renders the identifier as "<digest>:<serial hex>".
func (id *CertID) String() string {
	serial := "<nil>"
	if id.SerialNumber != nil {
		serial = fmt.Sprintf("%x", id.SerialNumber)
	}
	name := id.HashAlgorithm.Algorithm.String()
	if h, err := id.Hash(); err == nil {
		name = pkicrypto.HashName(h)
	}
	return name + ":" + serial
}
