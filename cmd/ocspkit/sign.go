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
	"github.com/remiblancher/ocspkit/internal/x509util"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign an OCSP response",
	Long: `Sign a basic OCSP response for one or more certificates and wrap it in a
successful response envelope.

The responder is the issuing CA itself unless --cert names a delegated
responder certificate. Entries come from serial numbers (--serial), certificate
files (--target) or the CertIDs of an existing request (--request); all of them
share the same status. A request's nonce is echoed unless --nonce is given.

Examples:
  # CA-signed "good" response
  ocspkit sign --issuer ca.crt --key ca.key --serial 1A2B --out resp.der

  # Delegated responder answering a request
  ocspkit sign --issuer ca.crt --cert responder.crt --key responder.key \
      --request req.der --out resp.der

  # Revoked, identified by key hash, no certificates embedded
  ocspkit sign --issuer ca.crt --key ca.key --serial 1A2B --status revoked \
      --revocation-reason keyCompromise --flags respIDKey,noCerts --out resp.der`,
	RunE: runSign,
}

var (
	signIssuer           string
	signCert             string
	signKey              string
	signPassphrase       string
	signSerials          []string
	signTargets          []string
	signRequest          string
	signDigest           string
	signStatus           string
	signRevocationTime   string
	signRevocationReason string
	signThisUpdate       string
	signValidity         string
	signNonce            string
	signFlags            []string
	signExtraCerts       []string
	signBasicOnly        bool
	signOutput           string
	signPEM              bool
)

func init() {
	signCmd.Flags().StringVar(&signIssuer, "issuer", "", "Issuer (CA) certificate of the certificates being answered for")
	signCmd.Flags().StringVar(&signCert, "cert", "", "Responder certificate (default: the issuer)")
	signCmd.Flags().StringVar(&signKey, "key", "", "Responder private key (PEM)")
	signCmd.Flags().StringVar(&signPassphrase, "passphrase", "", "Key passphrase")
	signCmd.Flags().StringSliceVar(&signSerials, "serial", nil, "Serial number, hex (repeatable)")
	signCmd.Flags().StringSliceVar(&signTargets, "target", nil, "Certificate file to answer for (repeatable)")
	signCmd.Flags().StringVar(&signRequest, "request", "", "OCSP request whose CertIDs and nonce are answered")
	signCmd.Flags().StringVar(&signDigest, "digest", "sha1", "CertID digest for --serial and --target")
	signCmd.Flags().StringVar(&signStatus, "status", "good", "Certificate status (good, revoked, unknown)")
	signCmd.Flags().StringVar(&signRevocationTime, "revocation-time", "", "Revocation time (RFC 3339, default: now)")
	signCmd.Flags().StringVar(&signRevocationReason, "revocation-reason", "", "Revocation reason (keyCompromise, cACompromise, affiliationChanged, superseded, cessationOfOperation, certificateHold, removeFromCRL, privilegeWithdrawn, aACompromise)")
	signCmd.Flags().StringVar(&signThisUpdate, "this-update", "", "thisUpdate time (RFC 3339, default: now)")
	signCmd.Flags().StringVar(&signValidity, "validity", "1h", "nextUpdate offset from thisUpdate (0 omits nextUpdate)")
	signCmd.Flags().StringVar(&signNonce, "nonce", "", "Nonce to include, hex")
	signCmd.Flags().StringSliceVar(&signFlags, "flags", nil, "Build flags (noCerts, respIDKey)")
	signCmd.Flags().StringSliceVar(&signExtraCerts, "include", nil, "Additional certificate files to embed")
	signCmd.Flags().BoolVar(&signBasicOnly, "basic", false, "Write only the BasicOCSPResponse, without the envelope")
	signCmd.Flags().StringVarP(&signOutput, "out", "o", "", "Output file")
	signCmd.Flags().BoolVar(&signPEM, "pem", false, "Write PEM instead of DER")

	_ = signCmd.MarkFlagRequired("issuer")
	_ = signCmd.MarkFlagRequired("key")
	_ = signCmd.MarkFlagRequired("out")
}

// signEntries holds the CertIDs and shared status of one sign run.
type signEntries struct {
	ids            []*ocsp.CertID
	status         ocsp.CertStatus
	revocationTime time.Time
	reason         ocsp.RevocationReason
	thisUpdate     time.Time
	nextUpdate     time.Time
	nonce          []byte
}

func runSign(cmd *cobra.Command, args []string) error {
	issuer, err := loadCertificate(signIssuer, "issuer")
	if err != nil {
		return err
	}
	responder := issuer
	if signCert != "" {
		if responder, err = loadCertificate(signCert, "responder"); err != nil {
			return err
		}
	}
	// Warn only: unauthorized responders make valid negative test vectors.
	if err := ocsp.CheckResponderCert(responder, issuer, time.Now()); err != nil {
		printf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
	signer, err := pkicrypto.LoadPrivateKey(signKey, []byte(signPassphrase))
	if err != nil {
		return fmt.Errorf("failed to load responder key: %w", err)
	}

	entries, err := collectSignEntries(issuer)
	if err != nil {
		return err
	}
	flags, err := ocsp.ParseTrustFlags(signFlags)
	if err != nil {
		return err
	}
	extra, err := loadCertificateFiles(signExtraCerts, "included")
	if err != nil {
		return err
	}

	der, basic, err := buildSignedResponse(responder, signer, entries, extra, flags)
	if err != nil {
		_ = audit.LogOCSPSign(signOutput, responder.Subject.String(), "", len(entries.ids), false, err.Error())
		return err
	}
	if err := writeDER(signOutput, der, pemTypeResponse, signPEM); err != nil {
		return err
	}

	algorithm := x509util.AlgorithmName(basic.SignatureAlgorithm().Algorithm)
	if err := audit.LogOCSPSign(signOutput, responder.Subject.String(), algorithm, len(entries.ids), true, ""); err != nil {
		return err
	}

	printSignResult(cmd, basic, entries)
	return nil
}

func collectSignEntries(issuer *x509.Certificate) (*signEntries, error) {
	e := &signEntries{reason: ocsp.ReasonNoStatus}
	now := time.Now()

	var err error
	if e.status, err = ocsp.ParseCertStatus(signStatus); err != nil {
		return nil, err
	}
	if e.thisUpdate, err = parseTimeFlag("this-update", signThisUpdate, now); err != nil {
		return nil, err
	}
	validity, err := config.ParseDuration(signValidity)
	if err != nil {
		return nil, fmt.Errorf("invalid --validity: %w", err)
	}
	if validity < 0 {
		return nil, fmt.Errorf("--validity must not be negative")
	}
	if validity > 0 {
		e.nextUpdate = e.thisUpdate.Add(validity)
	}

	if e.status == ocsp.CertStatusRevoked {
		if e.revocationTime, err = parseTimeFlag("revocation-time", signRevocationTime, now); err != nil {
			return nil, err
		}
		if signRevocationReason != "" {
			if e.reason, err = ocsp.ParseRevocationReason(signRevocationReason); err != nil {
				return nil, err
			}
		}
	} else if signRevocationTime != "" || signRevocationReason != "" {
		return nil, fmt.Errorf("--revocation-time and --revocation-reason require --status revoked")
	}

	digest, err := pkicrypto.ParseHash(signDigest)
	if err != nil {
		return nil, err
	}
	for _, s := range signSerials {
		serial, err := x509util.ParseSerial(s)
		if err != nil {
			return nil, err
		}
		id, err := ocsp.NewCertIDFromSerial(digest, issuer, serial)
		if err != nil {
			return nil, err
		}
		e.ids = append(e.ids, id)
	}

	targets, err := loadCertificateFiles(signTargets, "target")
	if err != nil {
		return nil, err
	}
	for _, cert := range targets {
		id, err := ocsp.NewCertID(digest, cert, issuer)
		if err != nil {
			return nil, err
		}
		e.ids = append(e.ids, id)
	}

	if signRequest != "" {
		data, err := x509util.ReadDERFile(signRequest)
		if err != nil {
			return nil, fmt.Errorf("failed to read request: %w", err)
		}
		req, err := ocsp.ParseRequest(data)
		if err != nil {
			return nil, err
		}
		for _, sr := range req.SingleRequests() {
			id := sr.ReqCert.Clone()
			e.ids = append(e.ids, &id)
		}
		e.nonce = req.Nonce()
	}

	if signNonce != "" {
		if e.nonce, err = hex.DecodeString(signNonce); err != nil {
			return nil, fmt.Errorf("invalid --nonce: %w", err)
		}
	}

	if len(e.ids) == 0 {
		return nil, fmt.Errorf("at least one --serial, --target or --request is required")
	}
	return e, nil
}

func buildSignedResponse(responder *x509.Certificate, signer crypto.Signer, e *signEntries, extra []*x509.Certificate, flags ocsp.TrustFlags) ([]byte, *ocsp.BasicResponse, error) {
	b := ocsp.NewBuilder(responder, signer)
	for _, id := range e.ids {
		switch e.status {
		case ocsp.CertStatusGood:
			b.AddGood(id, e.thisUpdate, e.nextUpdate)
		case ocsp.CertStatusRevoked:
			b.AddRevoked(id, e.thisUpdate, e.nextUpdate, e.revocationTime, e.reason)
		default:
			b.AddUnknown(id, e.thisUpdate, e.nextUpdate)
		}
	}
	if e.nonce != nil {
		b.AddNonce(e.nonce)
	}
	b.AddCertificates(extra...)

	basic, err := b.Build(flags)
	if err != nil {
		return nil, nil, err
	}
	if signBasicOnly {
		return basic.Marshal(), basic, nil
	}

	resp, err := ocsp.CreateResponse(ocsp.StatusSuccessful, basic)
	if err != nil {
		return nil, nil, err
	}
	der, err := resp.Marshal()
	if err != nil {
		return nil, nil, err
	}
	return der, basic, nil
}

func printSignResult(cmd *cobra.Command, basic *ocsp.BasicResponse, e *signEntries) {
	out := cmd.OutOrStdout()
	printf(out, "OCSP response written to %s\n", signOutput)
	printf(out, "  Responder:  %s\n", basic.ResponderID())
	printf(out, "  Algorithm:  %s\n", x509util.AlgorithmName(basic.SignatureAlgorithm().Algorithm))
	printf(out, "  Entries:    %d\n", len(e.ids))
	printf(out, "  Status:     %s\n", e.status)
	if e.status == ocsp.CertStatusRevoked {
		printf(out, "  Revoked at: %s\n", e.revocationTime.UTC().Format(time.RFC3339))
		if e.reason != ocsp.ReasonNoStatus {
			printf(out, "  Reason:     %s\n", e.reason)
		}
	}
	if len(e.nonce) > 0 {
		printf(out, "  Nonce:      %s\n", hex.EncodeToString(e.nonce))
	}
	for _, sr := range basic.Responses() {
		printf(out, "  Serial:     %s\n", x509util.FormatSerial(sr.CertID.SerialNumber))
	}
}
