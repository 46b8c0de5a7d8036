package ocsp

import (
	"bytes"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"time"
)

// basicOCSPResponse is the standard response type (RFC 6960 §4.2.1).
// BasicOCSPResponse ::= SEQUENCE {
//
//	tbsResponseData      ResponseData,
//	signatureAlgorithm   AlgorithmIdentifier,
//	signature            BIT STRING,
//	certs            [0] EXPLICIT SEQUENCE OF Certificate OPTIONAL }
type basicOCSPResponse struct {
	TBSResponseData    responseData
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Signature          asn1.BitString
	Certs              []asn1.RawValue `asn1:"optional,explicit,tag:0"`
}

// responseData is the signed part of a basic response. Raw keeps the exact
// bytes covered by the signature.
// ResponseData ::= SEQUENCE {
//
//	version              [0] EXPLICIT Version DEFAULT v1,
//	responderID              ResponderID,
//	producedAt               GeneralizedTime,
//	responses                SEQUENCE OF SingleResponse,
//	responseExtensions   [1] EXPLICIT Extensions OPTIONAL }
type responseData struct {
	Raw                asn1.RawContent
	Version            int              `asn1:"optional,explicit,tag:0,default:0"`
	ResponderID        asn1.RawValue    // CHOICE: byName [1] or byKey [2]
	ProducedAt         time.Time        `asn1:"generalized"`
	Responses          []singleResponse `asn1:"sequence"`
	ResponseExtensions []pkix.Extension `asn1:"optional,explicit,tag:1"`
}

// singleResponse contains status for a single certificate. The CertStatus
// CHOICE is spread over three optional fields.
// SingleResponse ::= SEQUENCE {
//
//	certID                       CertID,
//	certStatus                   CertStatus,
//	thisUpdate                   GeneralizedTime,
//	nextUpdate           [0]     EXPLICIT GeneralizedTime OPTIONAL,
//	singleExtensions     [1]     EXPLICIT Extensions OPTIONAL }
//
// CertStatus ::= CHOICE {
//
//	good        [0]     IMPLICIT NULL,
//	revoked     [1]     IMPLICIT RevokedInfo,
//	unknown     [2]     IMPLICIT UnknownInfo }
type singleResponse struct {
	CertID           CertID
	Good             asn1.Flag        `asn1:"tag:0,optional"`
	Revoked          revokedInfo      `asn1:"tag:1,optional"`
	Unknown          asn1.Flag        `asn1:"tag:2,optional"`
	ThisUpdate       time.Time        `asn1:"generalized"`
	NextUpdate       time.Time        `asn1:"generalized,explicit,tag:0,optional"`
	SingleExtensions []pkix.Extension `asn1:"explicit,tag:1,optional"`
}

// revokedInfo contains revocation details. An absent reason decodes to -1.
// RevokedInfo ::= SEQUENCE {
//
//	revocationTime              GeneralizedTime,
//	revocationReason    [0]     EXPLICIT CRLReason OPTIONAL }
type revokedInfo struct {
	RevocationTime time.Time       `asn1:"generalized"`
	Reason         asn1.Enumerated `asn1:"explicit,tag:0,optional,default:-1"`
}

// ResponderID identifies the responder either by subject name or by the
// SHA-1 hash of its public key.
type ResponderID struct {
	Name    []byte // DER-encoded Name, set for byName
	KeyHash []byte // set for byKey
}

// ByKey reports whether the responder is identified by key hash.
func (r ResponderID) ByKey() bool {
	return len(r.KeyHash) > 0
}

// Matches reports whether cert is the certificate named by the responder ID.
func (r ResponderID) Matches(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}
	if r.ByKey() {
		keyHash, err := responderKeyHash(cert)
		return err == nil && bytes.Equal(keyHash, r.KeyHash)
	}
	return len(r.Name) > 0 && bytes.Equal(r.Name, cert.RawSubject)
}

func (r ResponderID) String() string {
	if r.ByKey() {
		return "key:" + hex.EncodeToString(r.KeyHash)
	}
	var rdn pkix.RDNSequence
	if _, err := asn1.Unmarshal(r.Name, &rdn); err != nil {
		return "name:<invalid>"
	}
	var name pkix.Name
	name.FillFromRDNSequence(&rdn)
	return "name:" + name.String()
}

// responderKeyHash computes the byKey value: SHA-1 over the subjectPublicKey
// BIT STRING contents.
func responderKeyHash(cert *x509.Certificate) ([]byte, error) {
	pub, err := subjectPublicKeyBytes(cert)
	if err != nil {
		return nil, err
	}
	sum := sha1.Sum(pub)
	return sum[:], nil
}

func parseResponderID(raw asn1.RawValue) (ResponderID, error) {
	if raw.Class != asn1.ClassContextSpecific || !raw.IsCompound {
		return ResponderID{}, fmt.Errorf("invalid responder ID tag")
	}
	switch raw.Tag {
	case 1:
		var rdn pkix.RDNSequence
		rest, err := asn1.Unmarshal(raw.Bytes, &rdn)
		if err != nil {
			return ResponderID{}, fmt.Errorf("invalid responder name: %w", err)
		}
		if len(rest) > 0 {
			return ResponderID{}, fmt.Errorf("trailing data after responder name")
		}
		return ResponderID{Name: bytes.Clone(raw.Bytes)}, nil
	case 2:
		var keyHash []byte
		rest, err := asn1.Unmarshal(raw.Bytes, &keyHash)
		if err != nil {
			return ResponderID{}, fmt.Errorf("invalid responder key hash: %w", err)
		}
		if len(rest) > 0 || len(keyHash) == 0 {
			return ResponderID{}, fmt.Errorf("invalid responder key hash")
		}
		return ResponderID{KeyHash: keyHash}, nil
	default:
		return ResponderID{}, fmt.Errorf("unknown responder ID choice [%d]", raw.Tag)
	}
}

func (r ResponderID) marshal() (asn1.RawValue, error) {
	if r.ByKey() {
		// The [2] tag is EXPLICIT (constructed), wrapping an OCTET STRING.
		octetString, err := asn1.Marshal(r.KeyHash)
		if err != nil {
			return asn1.RawValue{}, err
		}
		return asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 2, IsCompound: true, Bytes: octetString}, nil
	}
	if len(r.Name) == 0 {
		return asn1.RawValue{}, fmt.Errorf("empty responder ID")
	}
	return asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 1, IsCompound: true, Bytes: r.Name}, nil
}

// Status is the status of one certificate as reported by a basic response.
// It is a copy and stays valid after the response is discarded.
type Status struct {
	CertStatus     CertStatus
	Reason         RevocationReason // ReasonNoStatus unless revoked with a reason
	RevocationTime time.Time        // zero unless revoked
	ThisUpdate     time.Time
	NextUpdate     time.Time // zero when the responder omitted it
}

// SingleResponse is one entry of a basic response.
type SingleResponse struct {
	CertID     CertID
	Status     Status
	Extensions []pkix.Extension
}

// BasicResponse is a parsed, read-only basic OCSP response.
type BasicResponse struct {
	raw         []byte
	tbsRaw      []byte
	responderID ResponderID
	producedAt  time.Time
	responses   []SingleResponse
	extensions  []pkix.Extension
	sigAlg      pkix.AlgorithmIdentifier
	signature   []byte
	certs       []*x509.Certificate
}

// ParseBasicResponse parses a DER-encoded BasicOCSPResponse. Every entry's
// certificate status is validated up front.
func ParseBasicResponse(data []byte) (*BasicResponse, error) {
	const op = "parse basic response"

	data = bytes.Clone(data)
	var wire basicOCSPResponse
	rest, err := asn1.Unmarshal(data, &wire)
	if err != nil {
		return nil, newError(op, ErrEncoding, err)
	}
	if len(rest) > 0 {
		return nil, errorf(op, ErrEncoding, "trailing data after basic response")
	}

	tbs := wire.TBSResponseData
	if tbs.Version != 0 {
		return nil, errorf(op, ErrEncoding, "unsupported basic response version: %d", tbs.Version)
	}

	responderID, err := parseResponderID(tbs.ResponderID)
	if err != nil {
		return nil, newError(op, ErrEncoding, err)
	}

	b := &BasicResponse{
		raw:         data,
		tbsRaw:      tbs.Raw,
		responderID: responderID,
		producedAt:  tbs.ProducedAt,
		extensions:  tbs.ResponseExtensions,
		sigAlg:      wire.SignatureAlgorithm,
		signature:   wire.Signature.RightAlign(),
	}

	for i, sr := range tbs.Responses {
		status, err := sr.status()
		if err != nil {
			return nil, errorf(op, ErrEncoding, "response %d: %v", i, err)
		}
		b.responses = append(b.responses, SingleResponse{
			CertID:     sr.CertID,
			Status:     status,
			Extensions: sr.SingleExtensions,
		})
	}

	for i, raw := range wire.Certs {
		cert, err := x509.ParseCertificate(raw.FullBytes)
		if err != nil {
			return nil, errorf(op, ErrEncoding, "certificate %d: %v", i, err)
		}
		b.certs = append(b.certs, cert)
	}

	return b, nil
}

// status decodes the CertStatus CHOICE. Exactly one alternative must be set.
func (sr *singleResponse) status() (Status, error) {
	st := Status{
		Reason:     ReasonNoStatus,
		ThisUpdate: sr.ThisUpdate,
		NextUpdate: sr.NextUpdate,
	}

	revoked := !sr.Revoked.RevocationTime.IsZero()
	set := 0
	for _, b := range []bool{bool(sr.Good), revoked, bool(sr.Unknown)} {
		if b {
			set++
		}
	}
	if set != 1 {
		return Status{}, fmt.Errorf("invalid certificate status")
	}

	switch {
	case bool(sr.Good):
		st.CertStatus = CertStatusGood
	case bool(sr.Unknown):
		st.CertStatus = CertStatusUnknown
	default:
		st.CertStatus = CertStatusRevoked
		st.RevocationTime = sr.Revoked.RevocationTime
		st.Reason = RevocationReason(sr.Revoked.Reason)
	}
	return st, nil
}

// FindStatus returns the status of the first entry whose CertID equals id.
func (b *BasicResponse) FindStatus(id *CertID) (*Status, bool) {
	if id == nil {
		return nil, false
	}
	for i := range b.responses {
		if b.responses[i].CertID.Equal(id) {
			st := b.responses[i].Status
			return &st, true
		}
	}
	return nil, false
}

// Responses returns copies of all entries in wire order.
func (b *BasicResponse) Responses() []SingleResponse {
	out := make([]SingleResponse, len(b.responses))
	for i, sr := range b.responses {
		out[i] = SingleResponse{
			CertID:     sr.CertID.Clone(),
			Status:     sr.Status,
			Extensions: sr.Extensions,
		}
	}
	return out
}

// Certificates returns the certificates embedded in the response.
func (b *BasicResponse) Certificates() []*x509.Certificate {
	out := make([]*x509.Certificate, len(b.certs))
	copy(out, b.certs)
	return out
}

// ResponderID returns the responder identifier.
func (b *BasicResponse) ResponderID() ResponderID {
	return b.responderID
}

// ProducedAt returns the producedAt time.
func (b *BasicResponse) ProducedAt() time.Time {
	return b.producedAt
}

// Extensions returns the response extensions.
func (b *BasicResponse) Extensions() []pkix.Extension {
	return b.extensions
}

// Nonce returns the nonce extension value, if present.
func (b *BasicResponse) Nonce() []byte {
	return findNonce(b.extensions)
}

// SignatureAlgorithm returns the signature algorithm identifier.
func (b *BasicResponse) SignatureAlgorithm() pkix.AlgorithmIdentifier {
	return b.sigAlg
}

// Marshal returns the DER encoding of the basic response.
func (b *BasicResponse) Marshal() []byte {
	return bytes.Clone(b.raw)
}
