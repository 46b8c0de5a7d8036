package main

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspkit/internal/report"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

const (
	pemTypeRequest  = "OCSP REQUEST"
	pemTypeResponse = "OCSP RESPONSE"
)

// loadCertificate loads the first certificate of a PEM or DER file.
func loadCertificate(path, what string) (*x509.Certificate, error) {
	cert, err := x509util.LoadCertificate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s certificate: %w", what, err)
	}
	return cert, nil
}

// loadCertificateFiles loads every certificate of every file in paths.
func loadCertificateFiles(paths []string, what string) ([]*x509.Certificate, error) {
	certs, err := x509util.LoadCertificateFiles(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s certificates: %w", what, err)
	}
	return certs, nil
}

// writeDER writes der to path, PEM-armored when asPEM is set.
func writeDER(path string, der []byte, pemType string, asPEM bool) error {
	data := der
	if asPEM {
		data = pem.EncodeToMemory(&pem.Block{Type: pemType, Bytes: der})
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// printReport renders v in the named format on the command output.
func printReport(cmd *cobra.Command, v any, format string) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	return report.Encode(cmd.OutOrStdout(), v, f)
}

// parseTimeFlag parses an RFC 3339 time. An empty value yields def.
func parseTimeFlag(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s (RFC 3339 expected): %w", name, err)
	}
	return t, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
