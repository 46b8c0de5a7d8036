package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspkit/internal/audit"
	"github.com/remiblancher/ocspkit/internal/ocsp"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Wrap a response status and body in an OCSP response envelope",
	Long: `Produce an OCSPResponse envelope from a response status and, for a
successful status, a precomputed BasicOCSPResponse (see "sign --basic").

Examples:
  # Error envelope
  ocspkit respond --status tryLater --out busy.der

  # Successful envelope around a basic response
  ocspkit respond --status successful --body basic.der --out resp.der`,
	RunE: runRespond,
}

var (
	respondStatus string
	respondBody   string
	respondOutput string
	respondPEM    bool
)

func init() {
	respondCmd.Flags().StringVar(&respondStatus, "status", "", "Response status (successful, malformedRequest, internalError, tryLater, sigRequired, unauthorized)")
	respondCmd.Flags().StringVar(&respondBody, "body", "", "BasicOCSPResponse file (required for successful)")
	respondCmd.Flags().StringVarP(&respondOutput, "out", "o", "", "Output file")
	respondCmd.Flags().BoolVar(&respondPEM, "pem", false, "Write PEM instead of DER")

	_ = respondCmd.MarkFlagRequired("status")
	_ = respondCmd.MarkFlagRequired("out")
}

func runRespond(cmd *cobra.Command, args []string) error {
	status, err := ocsp.ParseResponseStatus(respondStatus)
	if err != nil {
		return err
	}

	if status == ocsp.StatusSuccessful && respondBody == "" {
		return fmt.Errorf("--body is required for a successful response")
	}

	var body *ocsp.BasicResponse
	if respondBody != "" {
		data, err := x509util.ReadDERFile(respondBody)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if body, err = ocsp.ParseBasicResponse(data); err != nil {
			return err
		}
	}

	resp, err := ocsp.CreateResponse(status, body)
	if err != nil {
		_ = audit.LogOCSPResponse(respondOutput, status.String(), false)
		return err
	}
	der, err := resp.Marshal()
	if err != nil {
		return err
	}
	if err := writeDER(respondOutput, der, pemTypeResponse, respondPEM); err != nil {
		return err
	}
	if err := audit.LogOCSPResponse(respondOutput, status.String(), true); err != nil {
		return err
	}

	printf(cmd.OutOrStdout(), "OCSP response written to %s\n", respondOutput)
	printf(cmd.OutOrStdout(), "  Status: %s\n", status)
	return nil
}
