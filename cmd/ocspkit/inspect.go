package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspkit/internal/ocsp"
	"github.com/remiblancher/ocspkit/internal/report"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Display an OCSP response or request",
	Long: `Display the contents of an OCSP response or, failing that, an OCSP request.
PEM and DER inputs are accepted. Nothing is verified.

Examples:
  ocspkit inspect resp.der
  ocspkit inspect resp.der --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectFormat string

func init() {
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json, yaml, cbor)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	der, err := x509util.ReadDERFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	resp, respErr := ocsp.ParseResponse(der)
	if respErr == nil {
		return printReport(cmd, report.FromResponse(resp), inspectFormat)
	}
	req, reqErr := ocsp.ParseRequest(der)
	if reqErr == nil {
		return printReport(cmd, report.FromRequest(req), inspectFormat)
	}
	return fmt.Errorf("%s is neither an OCSP response nor an OCSP request: %w", args[0], errors.Join(respErr, reqErr))
}
