package main

import (
	"crypto"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspkit/internal/audit"
	"github.com/remiblancher/ocspkit/internal/config"
	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
	"github.com/remiblancher/ocspkit/internal/ocsp"
	"github.com/remiblancher/ocspkit/internal/report"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <response-file>",
	Short: "Verify an OCSP response for a certificate",
	Long: `Verify an OCSP response and report the status of one certificate.

The check decodes the envelope, verifies the signer against the trust store,
finds the certificate's entry, and checks its time window. The command exits
non-zero when any step fails.

Trust comes from --config and the --roots, --responders and --untrusted files.
When no root is configured at all, the issuer certificate is used as the sole
trust anchor.

Flags (--flags, comma-separated): noCerts, noIntern, noSigs, noChain, noVerify,
noExplicit, noCASign, noDelegated, noChecks, trustOther, noTime.

Examples:
  ocspkit verify resp.der --issuer ca.crt --cert server.crt
  ocspkit verify resp.der --issuer ca.crt --serial 1A2B --roots root.crt --max-age 1d
  ocspkit verify resp.der --issuer ca.crt --cert server.crt --nonce 0A1B2C --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var (
	verifyIssuer     string
	verifyCert       string
	verifySerial     string
	verifyConfigPath string
	verifyRoots      []string
	verifyResponders []string
	verifyUntrusted  []string
	verifyFlags      []string
	verifyPurpose    []string
	verifyDigest     string
	verifySkew       string
	verifyMaxAge     string
	verifyNonce      string
	verifyAt         string
	verifyFormat     string
)

func init() {
	verifyCmd.Flags().StringVar(&verifyIssuer, "issuer", "", "Issuer certificate of the checked certificate")
	verifyCmd.Flags().StringVar(&verifyCert, "cert", "", "Certificate to check")
	verifyCmd.Flags().StringVar(&verifySerial, "serial", "", "Serial number to check, hex (alternative to --cert)")
	verifyCmd.Flags().StringVar(&verifyConfigPath, "config", "", "Verification profile (YAML)")
	verifyCmd.Flags().StringSliceVar(&verifyRoots, "roots", nil, "Trust anchor files")
	verifyCmd.Flags().StringSliceVar(&verifyResponders, "responders", nil, "Explicitly trusted responder certificate files")
	verifyCmd.Flags().StringSliceVar(&verifyUntrusted, "untrusted", nil, "Untrusted intermediate certificate files")
	verifyCmd.Flags().StringSliceVar(&verifyFlags, "flags", nil, "Verification flags (see above)")
	verifyCmd.Flags().StringSliceVar(&verifyPurpose, "purpose", nil, "Extended key usages required on the signer chain")
	verifyCmd.Flags().StringVar(&verifyDigest, "digest", "", "CertID digest (default: from config, else sha1)")
	verifyCmd.Flags().StringVar(&verifySkew, "skew", "", "Allowed clock skew, e.g. 5m (default: from config)")
	verifyCmd.Flags().StringVar(&verifyMaxAge, "max-age", "", "Maximum age of thisUpdate, e.g. 1d (default: from config)")
	verifyCmd.Flags().StringVar(&verifyNonce, "nonce", "", "Expected nonce, hex")
	verifyCmd.Flags().StringVar(&verifyAt, "at", "", "Verification time (RFC 3339, default: now)")
	verifyCmd.Flags().StringVar(&verifyFormat, "format", "text", "Output format (text, json, yaml, cbor)")

	_ = verifyCmd.MarkFlagRequired("issuer")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if verifyConfigPath != "" {
		var err error
		if cfg, err = config.Load(verifyConfigPath); err != nil {
			return err
		}
	}

	issuer, err := loadCertificate(verifyIssuer, "issuer")
	if err != nil {
		return err
	}
	digest, err := verifyDigestFor(cfg)
	if err != nil {
		return err
	}
	id, err := verifyCertID(digest, issuer)
	if err != nil {
		return err
	}
	check, err := verifyCheckConfig(cfg, issuer)
	if err != nil {
		return err
	}

	der, err := x509util.ReadDERFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	result, checkErr := ocsp.Check(der, id, check)
	info := report.FromCheck(result, check.Flags, checkErr)

	serial := x509util.FormatSerial(id.SerialNumber)
	if checkErr != nil {
		err = audit.LogOCSPVerify(serial, "", "", info.Flags, false, checkErr.Error())
	} else {
		err = audit.LogOCSPVerify(serial, info.Status.Status, info.ResponderID, info.Flags, true, "")
	}
	if err != nil {
		return err
	}

	if err := printReport(cmd, info, verifyFormat); err != nil {
		return err
	}
	if checkErr != nil {
		return fmt.Errorf("response verification failed: %w", checkErr)
	}
	return nil
}

func verifyDigestFor(cfg *config.Config) (crypto.Hash, error) {
	if verifyDigest != "" {
		return pkicrypto.ParseHash(verifyDigest)
	}
	return cfg.Hash()
}

func verifyCertID(digest crypto.Hash, issuer *x509.Certificate) (*ocsp.CertID, error) {
	switch {
	case verifyCert != "" && verifySerial != "":
		return nil, fmt.Errorf("--cert and --serial are mutually exclusive")
	case verifyCert != "":
		cert, err := loadCertificate(verifyCert, "target")
		if err != nil {
			return nil, err
		}
		return ocsp.NewCertID(digest, cert, issuer)
	case verifySerial != "":
		serial, err := x509util.ParseSerial(verifySerial)
		if err != nil {
			return nil, err
		}
		return ocsp.NewCertIDFromSerial(digest, issuer, serial)
	default:
		return nil, fmt.Errorf("one of --cert or --serial is required")
	}
}

// verifyCheckConfig layers the command-line trust settings over the profile.
func verifyCheckConfig(cfg *config.Config, issuer *x509.Certificate) (ocsp.CheckConfig, error) {
	check, err := cfg.CheckConfig()
	if err != nil {
		return ocsp.CheckConfig{}, err
	}
	store := check.Store

	roots, err := loadCertificateFiles(verifyRoots, "root")
	if err != nil {
		return ocsp.CheckConfig{}, err
	}
	for _, r := range roots {
		store.AddRoot(r)
	}
	if len(store.Roots()) == 0 {
		store.AddRoot(issuer)
	}

	responders, err := loadCertificateFiles(verifyResponders, "responder")
	if err != nil {
		return ocsp.CheckConfig{}, err
	}
	for _, r := range responders {
		store.AddTrustedResponder(r)
	}

	untrusted, err := loadCertificateFiles(verifyUntrusted, "untrusted")
	if err != nil {
		return ocsp.CheckConfig{}, err
	}
	check.Certs = append(check.Certs, untrusted...)

	flags, err := ocsp.ParseTrustFlags(verifyFlags)
	if err != nil {
		return ocsp.CheckConfig{}, err
	}
	check.Flags |= flags

	if len(verifyPurpose) > 0 {
		if store.Purpose, err = config.ParsePurposes(verifyPurpose); err != nil {
			return ocsp.CheckConfig{}, err
		}
	}

	if verifySkew != "" {
		if check.Skew, err = nonNegativeDuration("skew", verifySkew); err != nil {
			return ocsp.CheckConfig{}, err
		}
	}
	if verifyMaxAge != "" {
		if check.MaxAge, err = nonNegativeDuration("max-age", verifyMaxAge); err != nil {
			return ocsp.CheckConfig{}, err
		}
	}

	if verifyNonce != "" {
		if check.Nonce, err = hex.DecodeString(verifyNonce); err != nil {
			return ocsp.CheckConfig{}, fmt.Errorf("invalid --nonce: %w", err)
		}
	}

	if verifyAt != "" {
		at, err := parseTimeFlag("at", verifyAt, time.Time{})
		if err != nil {
			return ocsp.CheckConfig{}, err
		}
		clock := func() time.Time { return at }
		check.Clock = clock
		store.Clock = clock
	}
	return check, nil
}

func nonNegativeDuration(name, value string) (time.Duration, error) {
	d, err := config.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("--%s must not be negative", name)
	}
	return d, nil
}
