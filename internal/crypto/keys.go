package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
	"github.com/cloudflare/circl/sign/slhdsa"
)

// KeyAlgorithm names a signing key type usable by an OCSP responder.
type KeyAlgorithm string

const (
	KeyECDSAP256  KeyAlgorithm = "ecdsa-p256"
	KeyECDSAP384  KeyAlgorithm = "ecdsa-p384"
	KeyECDSAP521  KeyAlgorithm = "ecdsa-p521"
	KeyEd25519    KeyAlgorithm = "ed25519"
	KeyRSA2048    KeyAlgorithm = "rsa-2048"
	KeyRSA4096    KeyAlgorithm = "rsa-4096"
	KeyMLDSA44    KeyAlgorithm = "ml-dsa-44"
	KeyMLDSA65    KeyAlgorithm = "ml-dsa-65"
	KeyMLDSA87    KeyAlgorithm = "ml-dsa-87"
	KeySLHDSA128s KeyAlgorithm = "slh-dsa-128s"
	KeySLHDSA128f KeyAlgorithm = "slh-dsa-128f"
	KeySLHDSA192s KeyAlgorithm = "slh-dsa-192s"
	KeySLHDSA192f KeyAlgorithm = "slh-dsa-192f"
	KeySLHDSA256s KeyAlgorithm = "slh-dsa-256s"
	KeySLHDSA256f KeyAlgorithm = "slh-dsa-256f"
)

var slhdsaKeyIDs = map[KeyAlgorithm]slhdsa.ID{
	KeySLHDSA128s: slhdsa.SHA2_128s,
	KeySLHDSA128f: slhdsa.SHA2_128f,
	KeySLHDSA192s: slhdsa.SHA2_192s,
	KeySLHDSA192f: slhdsa.SHA2_192f,
	KeySLHDSA256s: slhdsa.SHA2_256s,
	KeySLHDSA256f: slhdsa.SHA2_256f,
}

// KeyAlgorithms lists every supported key algorithm.
func KeyAlgorithms() []KeyAlgorithm {
	return []KeyAlgorithm{
		KeyECDSAP256, KeyECDSAP384, KeyECDSAP521, KeyEd25519, KeyRSA2048, KeyRSA4096,
		KeyMLDSA44, KeyMLDSA65, KeyMLDSA87,
		KeySLHDSA128s, KeySLHDSA128f, KeySLHDSA192s, KeySLHDSA192f, KeySLHDSA256s, KeySLHDSA256f,
	}
}

// ParseKeyAlgorithm parses a case-insensitive key algorithm name.
func ParseKeyAlgorithm(s string) (KeyAlgorithm, error) {
	for _, alg := range KeyAlgorithms() {
		if strings.EqualFold(string(alg), s) {
			return alg, nil
		}
	}
	return "", fmt.Errorf("unsupported key algorithm: %s", s)
}

// GenerateKey creates a new signing key.
func GenerateKey(alg KeyAlgorithm) (crypto.Signer, error) {
	switch alg {
	case KeyECDSAP256:
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case KeyECDSAP384:
		return ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case KeyECDSAP521:
		return ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	case KeyEd25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		return priv, err
	case KeyRSA2048:
		return rsa.GenerateKey(rand.Reader, 2048)
	case KeyRSA4096:
		return rsa.GenerateKey(rand.Reader, 4096)
	case KeyMLDSA44:
		_, priv, err := mldsa44.GenerateKey(rand.Reader)
		return priv, err
	case KeyMLDSA65:
		_, priv, err := mldsa65.GenerateKey(rand.Reader)
		return priv, err
	case KeyMLDSA87:
		_, priv, err := mldsa87.GenerateKey(rand.Reader)
		return priv, err
	}
	if id, ok := slhdsaKeyIDs[alg]; ok {
		_, priv, err := slhdsa.GenerateKey(rand.Reader, id)
		if err != nil {
			return nil, err
		}
		return &priv, nil
	}
	return nil, fmt.Errorf("unsupported key algorithm: %s", alg)
}

// MarshalPrivateKeyPEM encodes a signer's private key. Classical keys use
// PKCS#8; PQC keys use their raw encoding under an algorithm-specific PEM type.
// A non-empty passphrase encrypts the block.
func MarshalPrivateKeyPEM(signer crypto.Signer, passphrase []byte) (*pem.Block, error) {
	var block *pem.Block

	switch priv := signer.(type) {
	case *ecdsa.PrivateKey, ed25519.PrivateKey, *rsa.PrivateKey:
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal private key: %w", err)
		}
		block = &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	case *mldsa44.PrivateKey:
		block = &pem.Block{Type: "ML-DSA-44 PRIVATE KEY", Bytes: priv.Bytes()}
	case *mldsa65.PrivateKey:
		block = &pem.Block{Type: "ML-DSA-65 PRIVATE KEY", Bytes: priv.Bytes()}
	case *mldsa87.PrivateKey:
		block = &pem.Block{Type: "ML-DSA-87 PRIVATE KEY", Bytes: priv.Bytes()}
	case *slhdsa.PrivateKey:
		raw, err := priv.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal SLH-DSA key: %w", err)
		}
		block = &pem.Block{Type: fmt.Sprintf("%s PRIVATE KEY", priv.ID), Bytes: raw}
	default:
		return nil, fmt.Errorf("unsupported private key type: %T", signer)
	}

	if len(passphrase) > 0 {
		enc, err := x509.EncryptPEMBlock(rand.Reader, block.Type, block.Bytes, passphrase, x509.PEMCipherAES256) //nolint:staticcheck
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt private key: %w", err)
		}
		block = enc
	}
	return block, nil
}

// SavePrivateKey writes a signer's private key to path with mode 0600.
func SavePrivateKey(path string, signer crypto.Signer, passphrase []byte) error {
	block, err := MarshalPrivateKeyPEM(signer, passphrase)
	if err != nil {
		return err
	}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0600)
}

// LoadPrivateKey reads a PEM private key from path.
func LoadPrivateKey(path string, passphrase []byte) (crypto.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	signer, err := ParsePrivateKeyPEM(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return signer, nil
}

// ParsePrivateKeyPEM parses the first private key block in data.
func ParsePrivateKeyPEM(data, passphrase []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	keyBytes := block.Bytes
	if x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck
		if len(passphrase) == 0 {
			return nil, fmt.Errorf("private key is encrypted but no passphrase provided")
		}
		var err error
		keyBytes, err = x509.DecryptPEMBlock(block, passphrase) //nolint:staticcheck
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt private key: %w", err)
		}
	}
	return parsePEMKeyBlock(block.Type, keyBytes)
}

func parsePEMKeyBlock(pemType string, keyBytes []byte) (crypto.Signer, error) {
	var (
		priv any
		err  error
	)

	switch pemType {
	case "PRIVATE KEY":
		priv, err = x509.ParsePKCS8PrivateKey(keyBytes)
	case "EC PRIVATE KEY":
		priv, err = x509.ParseECPrivateKey(keyBytes)
	case "RSA PRIVATE KEY":
		priv, err = x509.ParsePKCS1PrivateKey(keyBytes)
	case "ML-DSA-44 PRIVATE KEY":
		k := new(mldsa44.PrivateKey)
		err = k.UnmarshalBinary(keyBytes)
		priv = k
	case "ML-DSA-65 PRIVATE KEY":
		k := new(mldsa65.PrivateKey)
		err = k.UnmarshalBinary(keyBytes)
		priv = k
	case "ML-DSA-87 PRIVATE KEY":
		k := new(mldsa87.PrivateKey)
		err = k.UnmarshalBinary(keyBytes)
		priv = k
	default:
		id, ok := slhdsaIDFromPEMType(pemType)
		if !ok {
			return nil, fmt.Errorf("unknown PEM type: %s", pemType)
		}
		k := &slhdsa.PrivateKey{ID: id}
		err = k.UnmarshalBinary(keyBytes)
		priv = k
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", strings.ToLower(pemType), err)
	}

	signer, ok := priv.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("key of type %T cannot sign", priv)
	}
	return signer, nil
}

func slhdsaIDFromPEMType(pemType string) (slhdsa.ID, bool) {
	for _, id := range slhdsaKeyIDs {
		if pemType == fmt.Sprintf("%s PRIVATE KEY", id) {
			return id, true
		}
	}
	return 0, false
}

// KeyAlgorithmOf reports the algorithm of a signer's public key.
func KeyAlgorithmOf(pub crypto.PublicKey) (KeyAlgorithm, error) {
	switch k := pub.(type) {
	case *ecdsa.PublicKey:
		switch k.Curve.Params().BitSize {
		case 256:
			return KeyECDSAP256, nil
		case 384:
			return KeyECDSAP384, nil
		case 521:
			return KeyECDSAP521, nil
		}
	case ed25519.PublicKey:
		return KeyEd25519, nil
	case *rsa.PublicKey:
		switch k.N.BitLen() {
		case 2048:
			return KeyRSA2048, nil
		case 4096:
			return KeyRSA4096, nil
		}
	case *mldsa44.PublicKey:
		return KeyMLDSA44, nil
	case *mldsa65.PublicKey:
		return KeyMLDSA65, nil
	case *mldsa87.PublicKey:
		return KeyMLDSA87, nil
	case *slhdsa.PublicKey:
		return slhdsaKeyAlgorithm(k.ID)
	case slhdsa.PublicKey:
		return slhdsaKeyAlgorithm(k.ID)
	}
	return "", fmt.Errorf("unsupported public key type: %T", pub)
}

func slhdsaKeyAlgorithm(id slhdsa.ID) (KeyAlgorithm, error) {
	for alg, kid := range slhdsaKeyIDs {
		if kid == id {
			return alg, nil
		}
	}
	return "", fmt.Errorf("unsupported SLH-DSA parameter set: %v", id)
}
