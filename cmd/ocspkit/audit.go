package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspkit/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log management",
	Long: `Commands for verifying audit logs.

Every request, sign, respond, verify and serve operation is appended to the
audit log when --audit-log (or OCSPKIT_AUDIT_LOG) is set. Each event is
chained to the previous one with a SHA-256 hash.

Examples:
  ocspkit audit verify --log /var/log/ocspkit/audit.jsonl`,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit log integrity",
	Long: `Verify the hash chain of an audit log file.

The chain starts with hash_prev="sha256:genesis" for the first event. A
modified, deleted or inserted event breaks the chain and is reported.`,
	RunE: runAuditVerify,
}

var auditLogFile string

func init() {
	auditVerifyCmd.Flags().StringVar(&auditLogFile, "log", "", "Path to audit log file (required)")
	_ = auditVerifyCmd.MarkFlagRequired("log")

	auditCmd.AddCommand(auditVerifyCmd)
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printf(out, "Verifying audit log: %s\n\n", auditLogFile)

	count, err := audit.VerifyChain(auditLogFile)
	if err != nil {
		printf(out, "VERIFICATION FAILED\n")
		printf(out, "  Valid events: %d\n", count)
		printf(out, "  Error: %s\n", err)
		return fmt.Errorf("audit log verification failed: %w", err)
	}

	printf(out, "VERIFICATION PASSED\n")
	printf(out, "  Total events: %d\n", count)
	printf(out, "  Hash chain: VALID\n")
	return nil
}
