package ocsp

import (
	"crypto/x509"
	"fmt"
	"time"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
)

// Verify authenticates the response and its signer.
//
// The signer is located by responder ID among certs, then among the embedded
// certificates (unless FlagNoIntern). Its signature over the exact signed bytes
// is checked (unless FlagNoSigs). A signer taken from certs is accepted as-is
// under FlagTrustOther. Otherwise the signer chain is built to the store's
// roots (unless FlagNoVerify) and the signer must be authorized for every
// entry (unless FlagNoChecks): either it is the issuing CA, or a delegated
// responder with id-kp-OCSPSigning issued by that CA, or the chain contains an
// explicitly trusted responder.
//
// Every failure matches ErrVerification.
func (b *BasicResponse) Verify(certs []*x509.Certificate, store *TrustStore, flags TrustFlags) error {
	const op = "verify"

	signer, fromCaller := b.findSigner(certs, flags)
	if signer == nil {
		return errorf(op, ErrVerification, "signer certificate not found for responder %s", b.responderID)
	}

	if !flags.Has(FlagNoSigs) {
		if err := pkicrypto.VerifySignature(signer, b.sigAlg, b.tbsRaw, b.signature); err != nil {
			return newError(op, ErrVerification, err)
		}
	}

	if fromCaller && flags.Has(FlagTrustOther) {
		return nil
	}

	if flags.Has(FlagNoVerify) {
		return nil
	}
	if store == nil {
		return errorf(op, ErrVerification, "no trust store")
	}

	chain, err := b.verifyChain(signer, certs, store, flags)
	if err != nil {
		return newError(op, ErrVerification, err)
	}

	if flags.Has(FlagNoChecks) {
		return nil
	}
	if err := b.checkAuthorization(chain, store, flags); err != nil {
		return newError(op, ErrVerification, err)
	}
	return nil
}

// findSigner returns the certificate named by the responder ID and whether it
// came from the caller's set.
func (b *BasicResponse) findSigner(certs []*x509.Certificate, flags TrustFlags) (*x509.Certificate, bool) {
	for _, c := range certs {
		if b.responderID.Matches(c) {
			return c, true
		}
	}
	if flags.Has(FlagNoIntern) {
		return nil, false
	}
	for _, c := range b.certs {
		if b.responderID.Matches(c) {
			return c, false
		}
	}
	return nil, false
}

// verifyChain builds the signer chain to the store roots and returns the
// first chain within the store's depth limit.
func (b *BasicResponse) verifyChain(signer *x509.Certificate, certs []*x509.Certificate, store *TrustStore, flags TrustFlags) ([]*x509.Certificate, error) {
	opts := x509.VerifyOptions{
		Roots:       store.roots,
		CurrentTime: store.now(),
		KeyUsages:   store.keyUsages(),
	}
	if flags.Has(FlagNoTime) {
		opts.CurrentTime = clampTime(opts.CurrentTime, signer.NotBefore, signer.NotAfter)
	}
	if !flags.Has(FlagNoChain) {
		opts.Intermediates = x509.NewCertPool()
		for _, c := range certs {
			opts.Intermediates.AddCert(c)
		}
		for _, c := range b.certs {
			opts.Intermediates.AddCert(c)
		}
	}

	chains, err := signer.Verify(opts)
	if err != nil {
		return nil, fmt.Errorf("signer chain: %w", err)
	}
	for _, chain := range chains {
		if store.MaxDepth <= 0 || len(chain)-1 <= store.MaxDepth {
			return chain, nil
		}
	}
	return nil, fmt.Errorf("signer chain exceeds maximum depth %d", store.MaxDepth)
}

// checkAuthorization applies RFC 6960 §4.2.2.2 to every entry.
func (b *BasicResponse) checkAuthorization(chain []*x509.Certificate, store *TrustStore, flags TrustFlags) error {
	signer := chain[0]
	var signerIssuer *x509.Certificate
	if len(chain) > 1 {
		signerIssuer = chain[1]
	}

	for i := range b.responses {
		id := &b.responses[i].CertID
		if authorizedFor(id, signer, signerIssuer, flags) {
			continue
		}
		if !flags.Has(FlagNoExplicit) && chainHasTrustedResponder(chain, store) {
			continue
		}
		return fmt.Errorf("signer %q is not authorized for %s", signer.Subject.CommonName, id)
	}
	return nil
}

func authorizedFor(id *CertID, signer, signerIssuer *x509.Certificate, flags TrustFlags) bool {
	// Delegated responder issued by the CA named in the CertID.
	if signerIssuer != nil && id.MatchesIssuer(signerIssuer) {
		return !flags.Has(FlagNoDelegated) && hasOCSPSigning(signer)
	}
	// The CA signed the response itself.
	if id.MatchesIssuer(signer) {
		return !flags.Has(FlagNoCASign)
	}
	return false
}

func chainHasTrustedResponder(chain []*x509.Certificate, store *TrustStore) bool {
	for _, c := range chain {
		if store.isTrustedResponder(c) {
			return true
		}
	}
	return false
}

// hasOCSPSigning reports whether cert carries the id-kp-OCSPSigning EKU.
func hasOCSPSigning(cert *x509.Certificate) bool {
	for _, eku := range cert.ExtKeyUsage {
		if eku == x509.ExtKeyUsageOCSPSigning {
			return true
		}
	}
	// PQC certificates may leave the EKU unparsed.
	for _, oid := range cert.UnknownExtKeyUsage {
		if oid.Equal(oidExtKeyUsageOCSPSigning) {
			return true
		}
	}
	return false
}

func clampTime(t, notBefore, notAfter time.Time) time.Time {
	if t.Before(notBefore) {
		return notBefore
	}
	if t.After(notAfter) {
		return notAfter
	}
	return t
}
