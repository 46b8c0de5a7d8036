package ocsp

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"time"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
)

// Builder assembles and signs basic responses. It is meant for tests, tooling
// and precomputing bodies; it is not an OCSP responder.
type Builder struct {
	responderCert *x509.Certificate
	signer        crypto.Signer
	producedAt    time.Time
	responses     []singleResponse
	extensions    []pkix.Extension
	extraCerts    []*x509.Certificate
	err           error
}

// NewBuilder creates a builder signing with signer on behalf of responderCert.
func NewBuilder(responderCert *x509.Certificate, signer crypto.Signer) *Builder {
	return &Builder{
		responderCert: responderCert,
		signer:        signer,
		producedAt:    time.Now(),
	}
}

// SetProducedAt sets the producedAt time.
func (b *Builder) SetProducedAt(t time.Time) *Builder {
	b.producedAt = t
	return b
}

// AddGood adds a "good" status for a certificate.
func (b *Builder) AddGood(id *CertID, thisUpdate, nextUpdate time.Time) *Builder {
	return b.add(id, thisUpdate, nextUpdate, func(sr *singleResponse) {
		sr.Good = true
	})
}

// AddRevoked adds a "revoked" status for a certificate. ReasonNoStatus omits
// the revocation reason.
func (b *Builder) AddRevoked(id *CertID, thisUpdate, nextUpdate, revocationTime time.Time, reason RevocationReason) *Builder {
	if revocationTime.IsZero() {
		b.setErr(fmt.Errorf("revoked entry for %s needs a revocation time", id))
		return b
	}
	return b.add(id, thisUpdate, nextUpdate, func(sr *singleResponse) {
		sr.Revoked = revokedInfo{
			RevocationTime: derTime(revocationTime),
			Reason:         asn1.Enumerated(reason),
		}
	})
}

// AddUnknown adds an "unknown" status for a certificate.
func (b *Builder) AddUnknown(id *CertID, thisUpdate, nextUpdate time.Time) *Builder {
	return b.add(id, thisUpdate, nextUpdate, func(sr *singleResponse) {
		sr.Unknown = true
	})
}

func (b *Builder) add(id *CertID, thisUpdate, nextUpdate time.Time, setStatus func(*singleResponse)) *Builder {
	if id == nil || id.SerialNumber == nil {
		b.setErr(fmt.Errorf("certificate identifier with a serial number is required"))
		return b
	}
	sr := singleResponse{
		CertID:     id.Clone(),
		ThisUpdate: derTime(thisUpdate),
	}
	if !nextUpdate.IsZero() {
		sr.NextUpdate = derTime(nextUpdate)
	}
	setStatus(&sr)
	b.responses = append(b.responses, sr)
	return b
}

// AddNonce adds a nonce extension to the response.
func (b *Builder) AddNonce(nonce []byte) *Builder {
	if len(nonce) == 0 {
		return b
	}
	ext, err := nonceExtension(nonce)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.extensions = append(b.extensions, ext)
	return b
}

// AddCertificates embeds extra certificates (typically the signer's chain)
// after the signer certificate.
func (b *Builder) AddCertificates(certs ...*x509.Certificate) *Builder {
	b.extraCerts = append(b.extraCerts, certs...)
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build signs the response. FlagNoCerts omits all certificates and
// FlagRespIDKey identifies the responder by key hash instead of by name.
func (b *Builder) Build(flags TrustFlags) (*BasicResponse, error) {
	const op = "build response"

	if b.err != nil {
		return nil, newError(op, ErrEncoding, b.err)
	}
	if b.responderCert == nil || b.signer == nil {
		return nil, errorf(op, ErrCrypto, "responder certificate and signer are required")
	}
	if len(b.responses) == 0 {
		return nil, errorf(op, ErrEncoding, "no responses added")
	}

	var rid ResponderID
	if flags.Has(FlagRespIDKey) {
		keyHash, err := responderKeyHash(b.responderCert)
		if err != nil {
			return nil, newError(op, ErrCrypto, err)
		}
		rid.KeyHash = keyHash
	} else {
		rid.Name = b.responderCert.RawSubject
	}
	ridRaw, err := rid.marshal()
	if err != nil {
		return nil, newError(op, ErrEncoding, err)
	}

	tbs := responseData{
		ResponderID:        ridRaw,
		ProducedAt:         derTime(b.producedAt),
		Responses:          b.responses,
		ResponseExtensions: b.extensions,
	}
	tbsDER, err := asn1.Marshal(tbs)
	if err != nil {
		return nil, newError(op, ErrEncoding, err)
	}

	signature, sigAlg, err := pkicrypto.SignData(b.signer, tbsDER)
	if err != nil {
		return nil, newError(op, ErrCrypto, err)
	}

	tbs.Raw = tbsDER
	wire := basicOCSPResponse{
		TBSResponseData:    tbs,
		SignatureAlgorithm: sigAlg,
		Signature:          asn1.BitString{Bytes: signature, BitLength: len(signature) * 8},
	}
	if !flags.Has(FlagNoCerts) {
		wire.Certs = append(wire.Certs, asn1.RawValue{FullBytes: b.responderCert.Raw})
		for _, c := range b.extraCerts {
			wire.Certs = append(wire.Certs, asn1.RawValue{FullBytes: c.Raw})
		}
	}

	der, err := asn1.Marshal(wire)
	if err != nil {
		return nil, newError(op, ErrEncoding, err)
	}
	return ParseBasicResponse(der)
}

// derTime normalizes t to what GeneralizedTime can carry in DER.
func derTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
