package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspkit/internal/audit"
	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
	"github.com/remiblancher/ocspkit/internal/ocsp"
	"github.com/remiblancher/ocspkit/internal/report"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Create an OCSP request",
	Long: `Create an unsigned OCSP request for one or more certificates of the same issuer.

Certificates are identified either by file (--cert) or by serial number
(--serial, hexadecimal). The CertID digest defaults to SHA-1, which most
responders expect.

Examples:
  # Request status for a certificate, with a nonce
  ocspkit request --issuer ca.crt --cert server.crt --nonce --out req.der

  # Request status for two serial numbers using SHA-256 CertIDs
  ocspkit request --issuer ca.crt --serial 1A2B --serial 3C4D --digest sha256 --out req.der`,
	RunE: runRequest,
}

var requestInspectCmd = &cobra.Command{
	Use:   "inspect <request-file>",
	Short: "Display an OCSP request",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestInspect,
}

var (
	requestIssuer  string
	requestCerts   []string
	requestSerials []string
	requestDigest  string
	requestNonce   bool
	requestOutput  string
	requestPEM     bool

	requestInspectFormat string
)

func init() {
	requestCmd.Flags().StringVar(&requestIssuer, "issuer", "", "Issuer certificate (PEM or DER)")
	requestCmd.Flags().StringSliceVar(&requestCerts, "cert", nil, "Certificate file to check (repeatable)")
	requestCmd.Flags().StringSliceVar(&requestSerials, "serial", nil, "Serial number to check, hex (repeatable)")
	requestCmd.Flags().StringVar(&requestDigest, "digest", "sha1", "CertID digest (sha1, sha256, sha384, sha512)")
	requestCmd.Flags().BoolVar(&requestNonce, "nonce", false, "Include a random nonce extension")
	requestCmd.Flags().StringVarP(&requestOutput, "out", "o", "", "Output file")
	requestCmd.Flags().BoolVar(&requestPEM, "pem", false, "Write PEM instead of DER")

	_ = requestCmd.MarkFlagRequired("issuer")
	_ = requestCmd.MarkFlagRequired("out")

	requestInspectCmd.Flags().StringVar(&requestInspectFormat, "format", "text", "Output format (text, json, yaml, cbor)")

	requestCmd.AddCommand(requestInspectCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	if len(requestCerts) == 0 && len(requestSerials) == 0 {
		return fmt.Errorf("at least one --cert or --serial is required")
	}

	issuer, err := loadCertificate(requestIssuer, "issuer")
	if err != nil {
		return err
	}
	digest, err := pkicrypto.ParseHash(requestDigest)
	if err != nil {
		return err
	}

	req := ocsp.NewRequest()
	var serials []string

	certs, err := loadCertificateFiles(requestCerts, "target")
	if err != nil {
		return err
	}
	for _, cert := range certs {
		id, err := ocsp.NewCertID(digest, cert, issuer)
		if err != nil {
			return err
		}
		if _, err := req.AddCertID(*id); err != nil {
			return err
		}
		serials = append(serials, x509util.FormatSerial(cert.SerialNumber))
	}

	for _, s := range requestSerials {
		serial, err := x509util.ParseSerial(s)
		if err != nil {
			return err
		}
		id, err := ocsp.NewCertIDFromSerial(digest, issuer, serial)
		if err != nil {
			return err
		}
		if _, err := req.AddCertID(*id); err != nil {
			return err
		}
		serials = append(serials, x509util.FormatSerial(serial))
	}

	if requestNonce {
		if _, err := req.SetNonce(nil); err != nil {
			return fmt.Errorf("failed to set nonce: %w", err)
		}
	}

	der, err := req.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := writeDER(requestOutput, der, pemTypeRequest, requestPEM); err != nil {
		return err
	}

	if err := audit.LogOCSPRequest(requestOutput, strings.Join(serials, ","), pkicrypto.HashName(digest), req.Len(), requestNonce, true); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printf(out, "OCSP request written to %s\n", requestOutput)
	return report.FromRequest(req).WriteText(out)
}

func runRequestInspect(cmd *cobra.Command, args []string) error {
	der, err := x509util.ReadDERFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	req, err := ocsp.ParseRequest(der)
	if err != nil {
		return err
	}
	return printReport(cmd, report.FromRequest(req), requestInspectFormat)
}
