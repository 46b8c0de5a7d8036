package main

import (
	gocrypto "crypto"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspkit/internal/crypto"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Responder key management commands",
	Long:  `Commands for generating and inspecting responder signing keys.`,
}

var keyGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a signing key pair",
	Long: `Generate a new signing key pair for an OCSP responder.

Supported algorithms:
  Classical:
    ecdsa-p256   - ECDSA with P-256 curve (default)
    ecdsa-p384   - ECDSA with P-384 curve
    ecdsa-p521   - ECDSA with P-521 curve
    ed25519      - Ed25519 (EdDSA)
    rsa-2048     - RSA 2048-bit
    rsa-4096     - RSA 4096-bit

  Post-Quantum:
    ml-dsa-44, ml-dsa-65, ml-dsa-87                        (FIPS 204)
    slh-dsa-128s, slh-dsa-128f, slh-dsa-192s, slh-dsa-192f,
    slh-dsa-256s, slh-dsa-256f                             (FIPS 205, SHA2)

Examples:
  ocspkit key gen --out responder.key
  ocspkit key gen --algorithm ml-dsa-65 --out responder-pqc.key --passphrase secret`,
	RunE: runKeyGen,
}

var keyInfoCmd = &cobra.Command{
	Use:   "info <key-file>",
	Short: "Display information about a private key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeyInfo,
}

var (
	keyGenAlgorithm  string
	keyGenOutput     string
	keyGenPassphrase string

	keyInfoPassphrase string
)

func init() {
	keyGenCmd.Flags().StringVarP(&keyGenAlgorithm, "algorithm", "a", "ecdsa-p256", "Key algorithm")
	keyGenCmd.Flags().StringVarP(&keyGenOutput, "out", "o", "", "Output file")
	keyGenCmd.Flags().StringVar(&keyGenPassphrase, "passphrase", "", "Encrypt the key with this passphrase")
	_ = keyGenCmd.MarkFlagRequired("out")

	keyInfoCmd.Flags().StringVar(&keyInfoPassphrase, "passphrase", "", "Key passphrase")

	keyCmd.AddCommand(keyGenCmd)
	keyCmd.AddCommand(keyInfoCmd)
}

func runKeyGen(cmd *cobra.Command, args []string) error {
	alg, err := crypto.ParseKeyAlgorithm(keyGenAlgorithm)
	if err != nil {
		return fmt.Errorf("%w (supported: %s)", err, supportedKeyAlgorithms())
	}

	signer, err := crypto.GenerateKey(alg)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	if err := crypto.SavePrivateKey(keyGenOutput, signer, []byte(keyGenPassphrase)); err != nil {
		return fmt.Errorf("failed to save key: %w", err)
	}

	out := cmd.OutOrStdout()
	printf(out, "Private key saved to: %s\n", keyGenOutput)
	printf(out, "  Algorithm: %s\n", alg)
	if keyGenPassphrase != "" {
		printf(out, "  Encrypted: yes\n")
	}
	return nil
}

func runKeyInfo(cmd *cobra.Command, args []string) error {
	signer, err := crypto.LoadPrivateKey(args[0], []byte(keyInfoPassphrase))
	if err != nil {
		return err
	}
	alg, err := crypto.KeyAlgorithmOf(signer.Public())
	if err != nil {
		return err
	}
	pub, err := publicKeyDER(signer)
	if err != nil {
		return err
	}
	fingerprint := sha256.Sum256(pub)

	out := cmd.OutOrStdout()
	printf(out, "Key: %s\n", args[0])
	printf(out, "  Algorithm:   %s\n", alg)
	printf(out, "  Fingerprint: SHA256:%X\n", fingerprint[:])
	return nil
}

// publicKeyDER returns the SubjectPublicKeyInfo of a classical or PQC key.
func publicKeyDER(signer gocrypto.Signer) ([]byte, error) {
	if der, err := x509.MarshalPKIXPublicKey(signer.Public()); err == nil {
		return der, nil
	}
	return crypto.MarshalPQCPublicKey(signer.Public())
}

func supportedKeyAlgorithms() string {
	names := make([]string, 0, len(crypto.KeyAlgorithms()))
	for _, alg := range crypto.KeyAlgorithms() {
		names = append(names, string(alg))
	}
	return strings.Join(names, ", ")
}
