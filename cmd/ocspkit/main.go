// Command ocspkit builds, signs, inspects and verifies OCSP (RFC 6960) messages.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspkit/internal/audit"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var auditLogPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ocspkit",
	Short: "OCSP (RFC 6960) client toolkit",
	Long: `ocspkit builds OCSP requests, inspects and verifies OCSP responses, and
produces signed test responses for any issuer you hold a key for.

Verification follows RFC 6960 §3.2: the responder must be the issuing CA, a
delegate certified by it with the id-kp-OCSPSigning usage, or a locally
trusted responder.

Examples:
  # Build a request for a certificate, with a nonce
  ocspkit request --issuer ca.crt --cert server.crt --nonce --out req.der

  # Sign a test response for a serial number
  ocspkit sign --issuer ca.crt --cert responder.crt --key responder.key \
      --serial 1A2B --status revoked --revocation-reason keyCompromise --out resp.der

  # Verify a response for a certificate
  ocspkit verify resp.der --issuer ca.crt --cert server.crt --roots root.crt

  # Serve the verification API
  ocspkit serve --config ocspkit.yaml`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if auditLogPath == "" {
			auditLogPath = os.Getenv("OCSPKIT_AUDIT_LOG")
		}

		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set OCSPKIT_AUDIT_LOG env var)")

	rootCmd.AddCommand(requestCmd) // ocspkit request ...
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(respondCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keyCmd)   // ocspkit key ...
	rootCmd.AddCommand(auditCmd) // ocspkit audit ...
}
