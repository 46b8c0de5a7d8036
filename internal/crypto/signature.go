package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
	"github.com/cloudflare/circl/sign/slhdsa"
)

// Signature algorithm OIDs
var (
	// RSA
	OIDSHA1WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	OIDSHA256WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	OIDSHA384WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	OIDSHA512WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	OIDRSAPSS        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}

	// ECDSA
	OIDECDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}
	OIDECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	OIDECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	OIDECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}

	// Ed25519
	OIDEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

	// ML-DSA (FIPS 204)
	OIDMLDSA44 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 17}
	OIDMLDSA65 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 18}
	OIDMLDSA87 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 19}

	// SLH-DSA (FIPS 205)
	OIDSLHDSA128s = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 20}
	OIDSLHDSA128f = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 21}
	OIDSLHDSA192s = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 22}
	OIDSLHDSA192f = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 23}
	OIDSLHDSA256s = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 24}
	OIDSLHDSA256f = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 25}
)

// ErrSignatureInvalid is returned when a signature does not verify.
var ErrSignatureInvalid = errors.New("signature verification failed")

var slhdsaOIDs = []struct {
	oid asn1.ObjectIdentifier
	id  slhdsa.ID
}{
	{OIDSLHDSA128s, slhdsa.SHA2_128s},
	{OIDSLHDSA128f, slhdsa.SHA2_128f},
	{OIDSLHDSA192s, slhdsa.SHA2_192s},
	{OIDSLHDSA192f, slhdsa.SHA2_192f},
	{OIDSLHDSA256s, slhdsa.SHA2_256s},
	{OIDSLHDSA256f, slhdsa.SHA2_256f},
}

// pssParameters is RSASSA-PSS-params (RFC 4055). Only the hash is needed.
type pssParameters struct {
	Hash pkix.AlgorithmIdentifier `asn1:"explicit,tag:0,optional"`
}

// subjectPublicKeyInfo is used to reach raw key bytes that crypto/x509 cannot parse.
type subjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// IsPQCAlgorithm reports whether oid names an ML-DSA or SLH-DSA signature.
func IsPQCAlgorithm(oid asn1.ObjectIdentifier) bool {
	if oid.Equal(OIDMLDSA44) || oid.Equal(OIDMLDSA65) || oid.Equal(OIDMLDSA87) {
		return true
	}
	_, ok := slhdsaIDFromOID(oid)
	return ok
}

// VerifySignature checks sig over data with the public key of cert, using the
// signature algorithm sigAlg. The returned error wraps ErrSignatureInvalid when
// the key is usable but the signature does not match.
func VerifySignature(cert *x509.Certificate, sigAlg pkix.AlgorithmIdentifier, data, sig []byte) error {
	if cert == nil {
		return fmt.Errorf("no certificate to verify with")
	}
	if IsPQCAlgorithm(sigAlg.Algorithm) {
		return verifyPQC(cert, sigAlg.Algorithm, data, sig)
	}
	return verifyClassical(cert.PublicKey, sigAlg, data, sig)
}

// verifyClassical verifies ECDSA, RSA (PKCS#1 v1.5 and PSS) and Ed25519 signatures.
// SHA-1 based algorithms are accepted because many deployed responders still use them.
func verifyClassical(pub crypto.PublicKey, sigAlg pkix.AlgorithmIdentifier, data, sig []byte) error {
	oid := sigAlg.Algorithm

	switch pubKey := pub.(type) {
	case *ecdsa.PublicKey:
		var hashAlg crypto.Hash
		switch {
		case oid.Equal(OIDECDSAWithSHA1):
			hashAlg = crypto.SHA1
		case oid.Equal(OIDECDSAWithSHA256):
			hashAlg = crypto.SHA256
		case oid.Equal(OIDECDSAWithSHA384):
			hashAlg = crypto.SHA384
		case oid.Equal(OIDECDSAWithSHA512):
			hashAlg = crypto.SHA512
		default:
			return fmt.Errorf("unsupported ECDSA signature algorithm: %v", oid)
		}
		digest, err := Digest(hashAlg, data)
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(pubKey, digest, sig) {
			return fmt.Errorf("ECDSA: %w", ErrSignatureInvalid)
		}
		return nil

	case ed25519.PublicKey:
		if !oid.Equal(OIDEd25519) {
			return fmt.Errorf("unsupported Ed25519 signature algorithm: %v", oid)
		}
		if !ed25519.Verify(pubKey, data, sig) {
			return fmt.Errorf("Ed25519: %w", ErrSignatureInvalid)
		}
		return nil

	case *rsa.PublicKey:
		if oid.Equal(OIDRSAPSS) {
			hashAlg, err := pssHash(sigAlg.Parameters)
			if err != nil {
				return err
			}
			digest, err := Digest(hashAlg, data)
			if err != nil {
				return err
			}
			opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: hashAlg}
			if err := rsa.VerifyPSS(pubKey, hashAlg, digest, sig, opts); err != nil {
				return fmt.Errorf("RSA-PSS: %w", ErrSignatureInvalid)
			}
			return nil
		}

		var hashAlg crypto.Hash
		switch {
		case oid.Equal(OIDSHA1WithRSA):
			hashAlg = crypto.SHA1
		case oid.Equal(OIDSHA256WithRSA):
			hashAlg = crypto.SHA256
		case oid.Equal(OIDSHA384WithRSA):
			hashAlg = crypto.SHA384
		case oid.Equal(OIDSHA512WithRSA):
			hashAlg = crypto.SHA512
		default:
			return fmt.Errorf("unsupported RSA signature algorithm: %v", oid)
		}
		digest, err := Digest(hashAlg, data)
		if err != nil {
			return err
		}
		if err := rsa.VerifyPKCS1v15(pubKey, hashAlg, digest, sig); err != nil {
			return fmt.Errorf("RSA: %w", ErrSignatureInvalid)
		}
		return nil

	default:
		return fmt.Errorf("unsupported public key type for classical verification: %T", pub)
	}
}

// pssHash extracts the digest from RSASSA-PSS parameters (SHA-1 when absent).
func pssHash(params asn1.RawValue) (crypto.Hash, error) {
	if len(params.FullBytes) == 0 {
		return crypto.SHA1, nil
	}
	var p pssParameters
	if _, err := asn1.Unmarshal(params.FullBytes, &p); err != nil {
		return 0, fmt.Errorf("failed to parse RSA-PSS parameters: %w", err)
	}
	if len(p.Hash.Algorithm) == 0 {
		return crypto.SHA1, nil
	}
	return HashFromOID(p.Hash.Algorithm)
}

// verifyPQC verifies an ML-DSA or SLH-DSA signature. Go cannot parse these keys,
// so the key is read from the certificate's raw SubjectPublicKeyInfo.
func verifyPQC(cert *x509.Certificate, sigAlgOID asn1.ObjectIdentifier, data, sig []byte) error {
	var spki subjectPublicKeyInfo
	if _, err := asn1.Unmarshal(cert.RawSubjectPublicKeyInfo, &spki); err != nil {
		return fmt.Errorf("failed to parse SPKI: %w", err)
	}
	if !spki.Algorithm.Algorithm.Equal(sigAlgOID) {
		return fmt.Errorf("key algorithm %v does not match signature algorithm %v",
			spki.Algorithm.Algorithm, sigAlgOID)
	}
	keyBytes := spki.PublicKey.Bytes

	var ok bool
	switch {
	case sigAlgOID.Equal(OIDMLDSA44):
		var pub mldsa44.PublicKey
		if err := pub.UnmarshalBinary(keyBytes); err != nil {
			return fmt.Errorf("failed to parse ML-DSA-44 key: %w", err)
		}
		ok = mldsa44.Verify(&pub, data, nil, sig)
	case sigAlgOID.Equal(OIDMLDSA65):
		var pub mldsa65.PublicKey
		if err := pub.UnmarshalBinary(keyBytes); err != nil {
			return fmt.Errorf("failed to parse ML-DSA-65 key: %w", err)
		}
		ok = mldsa65.Verify(&pub, data, nil, sig)
	case sigAlgOID.Equal(OIDMLDSA87):
		var pub mldsa87.PublicKey
		if err := pub.UnmarshalBinary(keyBytes); err != nil {
			return fmt.Errorf("failed to parse ML-DSA-87 key: %w", err)
		}
		ok = mldsa87.Verify(&pub, data, nil, sig)
	default:
		id, found := slhdsaIDFromOID(sigAlgOID)
		if !found {
			return fmt.Errorf("unsupported PQC signature algorithm: %v", sigAlgOID)
		}
		pub := slhdsa.PublicKey{ID: id}
		if err := pub.UnmarshalBinary(keyBytes); err != nil {
			return fmt.Errorf("failed to parse SLH-DSA key: %w", err)
		}
		ok = slhdsa.Verify(&pub, slhdsa.NewMessage(data), sig, nil)
	}

	if !ok {
		return fmt.Errorf("%v: %w", sigAlgOID, ErrSignatureInvalid)
	}
	return nil
}

// SignData signs data with signer and returns the signature together with the
// matching AlgorithmIdentifier.
func SignData(signer crypto.Signer, data []byte) ([]byte, pkix.AlgorithmIdentifier, error) {
	pub := signer.Public()

	switch pubKey := pub.(type) {
	case *ecdsa.PublicKey:
		// SHA-256 for P-256, SHA-384 for P-384, SHA-512 for P-521
		var hashAlg crypto.Hash
		var sigAlg pkix.AlgorithmIdentifier
		switch pubKey.Curve.Params().BitSize {
		case 256:
			hashAlg = crypto.SHA256
			sigAlg = pkix.AlgorithmIdentifier{Algorithm: OIDECDSAWithSHA256}
		case 384:
			hashAlg = crypto.SHA384
			sigAlg = pkix.AlgorithmIdentifier{Algorithm: OIDECDSAWithSHA384}
		case 521:
			hashAlg = crypto.SHA512
			sigAlg = pkix.AlgorithmIdentifier{Algorithm: OIDECDSAWithSHA512}
		default:
			return nil, pkix.AlgorithmIdentifier{}, fmt.Errorf("unsupported ECDSA curve size: %d", pubKey.Curve.Params().BitSize)
		}
		digest, err := Digest(hashAlg, data)
		if err != nil {
			return nil, pkix.AlgorithmIdentifier{}, err
		}
		sig, err := signer.Sign(rand.Reader, digest, hashAlg)
		return sig, sigAlg, err

	case ed25519.PublicKey:
		sig, err := signer.Sign(rand.Reader, data, crypto.Hash(0))
		return sig, pkix.AlgorithmIdentifier{Algorithm: OIDEd25519}, err

	case *rsa.PublicKey:
		digest, err := Digest(crypto.SHA256, data)
		if err != nil {
			return nil, pkix.AlgorithmIdentifier{}, err
		}
		sig, err := signer.Sign(rand.Reader, digest, crypto.SHA256)
		return sig, pkix.AlgorithmIdentifier{Algorithm: OIDSHA256WithRSA, Parameters: asn1.NullRawValue}, err

	case *mldsa44.PublicKey:
		sig, err := signer.Sign(rand.Reader, data, crypto.Hash(0))
		return sig, pkix.AlgorithmIdentifier{Algorithm: OIDMLDSA44}, err
	case *mldsa65.PublicKey:
		sig, err := signer.Sign(rand.Reader, data, crypto.Hash(0))
		return sig, pkix.AlgorithmIdentifier{Algorithm: OIDMLDSA65}, err
	case *mldsa87.PublicKey:
		sig, err := signer.Sign(rand.Reader, data, crypto.Hash(0))
		return sig, pkix.AlgorithmIdentifier{Algorithm: OIDMLDSA87}, err

	// SLH-DSA signs the full message with nil options
	case *slhdsa.PublicKey:
		sig, err := signer.Sign(rand.Reader, data, nil)
		return sig, pkix.AlgorithmIdentifier{Algorithm: slhdsaOID(pubKey.ID)}, err
	case slhdsa.PublicKey:
		sig, err := signer.Sign(rand.Reader, data, nil)
		return sig, pkix.AlgorithmIdentifier{Algorithm: slhdsaOID(pubKey.ID)}, err

	default:
		return nil, pkix.AlgorithmIdentifier{}, fmt.Errorf("unsupported key type: %T", pub)
	}
}

// MarshalPQCPublicKey encodes a circl public key as a SubjectPublicKeyInfo.
func MarshalPQCPublicKey(pub crypto.PublicKey) ([]byte, error) {
	var oid asn1.ObjectIdentifier
	var raw []byte
	var err error

	switch k := pub.(type) {
	case *mldsa44.PublicKey:
		oid = OIDMLDSA44
		raw, err = k.MarshalBinary()
	case *mldsa65.PublicKey:
		oid = OIDMLDSA65
		raw, err = k.MarshalBinary()
	case *mldsa87.PublicKey:
		oid = OIDMLDSA87
		raw, err = k.MarshalBinary()
	case *slhdsa.PublicKey:
		oid = slhdsaOID(k.ID)
		raw, err = k.MarshalBinary()
	case slhdsa.PublicKey:
		oid = slhdsaOID(k.ID)
		raw, err = k.MarshalBinary()
	default:
		return nil, fmt.Errorf("unsupported PQC key type: %T", pub)
	}
	if err != nil {
		return nil, err
	}

	return asn1.Marshal(subjectPublicKeyInfo{
		Algorithm: pkix.AlgorithmIdentifier{Algorithm: oid},
		PublicKey: asn1.BitString{Bytes: raw, BitLength: len(raw) * 8},
	})
}

func slhdsaIDFromOID(oid asn1.ObjectIdentifier) (slhdsa.ID, bool) {
	for _, e := range slhdsaOIDs {
		if e.oid.Equal(oid) {
			return e.id, true
		}
	}
	return 0, false
}

func slhdsaOID(id slhdsa.ID) asn1.ObjectIdentifier {
	for _, e := range slhdsaOIDs {
		if e.id == id {
			return e.oid
		}
	}
	return nil
}
