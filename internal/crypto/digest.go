// Package crypto provides the digest and signature primitives used by the OCSP
// core. It supports classical algorithms (ECDSA, Ed25519, RSA) and post-quantum
// signatures (ML-DSA, SLH-DSA) via the cloudflare/circl library.
package crypto

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/asn1"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Hash algorithm OIDs
var (
	OIDSHA1     = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	OIDSHA256   = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	OIDSHA384   = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	OIDSHA512   = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
	OIDSHA3_256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 8}
	OIDSHA3_384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 9}
	OIDSHA3_512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 10}
)

// digestInfo holds metadata about a supported digest.
type digestInfo struct {
	Name string
	OID  asn1.ObjectIdentifier
	New  func() hash.Hash
}

// digests maps crypto.Hash to its metadata.
var digests = map[crypto.Hash]digestInfo{
	crypto.SHA1:     {Name: "sha1", OID: OIDSHA1, New: sha1.New},
	crypto.SHA256:   {Name: "sha256", OID: OIDSHA256, New: sha256.New},
	crypto.SHA384:   {Name: "sha384", OID: OIDSHA384, New: sha512.New384},
	crypto.SHA512:   {Name: "sha512", OID: OIDSHA512, New: sha512.New},
	crypto.SHA3_256: {Name: "sha3-256", OID: OIDSHA3_256, New: sha3.New256},
	crypto.SHA3_384: {Name: "sha3-384", OID: OIDSHA3_384, New: sha3.New384},
	crypto.SHA3_512: {Name: "sha3-512", OID: OIDSHA3_512, New: sha3.New512},
}

// NewHash returns a fresh hash.Hash for alg.
func NewHash(alg crypto.Hash) (hash.Hash, error) {
	info, ok := digests[alg]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %v", alg)
	}
	return info.New(), nil
}

// Digest hashes data with alg.
func Digest(alg crypto.Hash, data []byte) ([]byte, error) {
	h, err := NewHash(alg)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// HashOID returns the AlgorithmIdentifier OID for alg.
func HashOID(alg crypto.Hash) (asn1.ObjectIdentifier, error) {
	info, ok := digests[alg]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %v", alg)
	}
	return info.OID, nil
}

// HashFromOID maps a digest OID back to its crypto.Hash.
func HashFromOID(oid asn1.ObjectIdentifier) (crypto.Hash, error) {
	for alg, info := range digests {
		if info.OID.Equal(oid) {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("unsupported hash algorithm OID: %v", oid)
}

// ParseHash parses a digest name such as "sha256" or "sha3-384".
func ParseHash(name string) (crypto.Hash, error) {
	n := strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	for alg, info := range digests {
		if info.Name == n || strings.ReplaceAll(info.Name, "-", "") == n {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("unsupported hash algorithm: %s", name)
}

// HashName returns the short lowercase name for alg.
func HashName(alg crypto.Hash) string {
	if info, ok := digests[alg]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown(%d)", alg)
}
