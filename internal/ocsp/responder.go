package ocsp

import (
	"bytes"
	"crypto/x509"
	"time"
)

// CheckResponderCert reports whether cert can sign responses for certificates
// issued by issuer at time now: it must be the issuer itself, or a delegate
// named by the issuer that carries id-kp-OCSPSigning. The delegate's signature
// is not checked here; BasicResponse.Verify does that against a trust store.
//
// Failures match ErrVerification.
func CheckResponderCert(cert, issuer *x509.Certificate, now time.Time) error {
	const op = "check responder"

	if cert == nil || issuer == nil {
		return errorf(op, ErrVerification, "responder and issuer certificates are required")
	}

	if now.Before(cert.NotBefore) {
		return errorf(op, ErrVerification, "responder certificate is not yet valid")
	}
	if now.After(cert.NotAfter) {
		return errorf(op, ErrVerification, "responder certificate has expired")
	}

	if cert.Equal(issuer) {
		return nil
	}
	if !bytes.Equal(cert.RawIssuer, issuer.RawSubject) {
		return errorf(op, ErrVerification, "responder %q was not issued by %q",
			cert.Subject.CommonName, issuer.Subject.CommonName)
	}
	if !hasOCSPSigning(cert) {
		return errorf(op, ErrVerification, "responder %q lacks the OCSP signing extended key usage",
			cert.Subject.CommonName)
	}
	return nil
}
