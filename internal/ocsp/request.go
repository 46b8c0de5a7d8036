package ocsp

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// ocspRequest is the wire form of an OCSP request (RFC 6960 §4.1.1).
// OCSPRequest ::= SEQUENCE {
//
//	tbsRequest                  TBSRequest,
//	optionalSignature   [0]     EXPLICIT Signature OPTIONAL }
type ocspRequest struct {
	TBSRequest        tbsRequest
	OptionalSignature asn1.RawValue `asn1:"optional,explicit,tag:0"`
}

// tbsRequest is the to-be-signed part of an OCSP request.
// TBSRequest ::= SEQUENCE {
//
//	version             [0]     EXPLICIT Version DEFAULT v1,
//	requestorName       [1]     EXPLICIT GeneralName OPTIONAL,
//	requestList                 SEQUENCE OF Request,
//	requestExtensions   [2]     EXPLICIT Extensions OPTIONAL }
type tbsRequest struct {
	Version           int              `asn1:"optional,explicit,tag:0,default:0"`
	RequestorName     asn1.RawValue    `asn1:"optional,explicit,tag:1"`
	RequestList       []singleRequest  `asn1:"sequence"`
	RequestExtensions []pkix.Extension `asn1:"optional,explicit,tag:2"`
}

// singleRequest is one entry of the request list.
// Request ::= SEQUENCE {
//
//	reqCert                     CertID,
//	singleRequestExtensions     [0] EXPLICIT Extensions OPTIONAL }
type singleRequest struct {
	ReqCert                 CertID
	SingleRequestExtensions []pkix.Extension `asn1:"optional,explicit,tag:0"`
}

// SingleRequest is a request entry owned by a Request. The pointer returned by
// AddCertID stays valid for the lifetime of the Request.
type SingleRequest struct {
	ReqCert    CertID
	Extensions []pkix.Extension
}

// Request is an ordered collection of certificate identifiers to query.
// Duplicates are allowed and kept in insertion order.
type Request struct {
	entries    []*SingleRequest
	extensions []pkix.Extension
	signed     bool
}

// NewRequest returns an empty request.
func NewRequest() *Request {
	return &Request{}
}

// CreateRequest creates a request for certs issued by issuer.
func CreateRequest(hashAlg crypto.Hash, issuer *x509.Certificate, certs ...*x509.Certificate) (*Request, error) {
	if len(certs) == 0 {
		return nil, errorf("create request", ErrEncoding, "no certificates provided")
	}

	req := NewRequest()
	for i, cert := range certs {
		id, err := NewCertID(hashAlg, cert, issuer)
		if err != nil {
			return nil, fmt.Errorf("certificate %d: %w", i, err)
		}
		if _, err := req.AddCertID(*id); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// AddCertID appends a copy of id to the request and returns the stored entry.
// The caller's value is not retained; the returned entry is the only handle to
// the stored identifier and may be used to attach single-request extensions.
func (r *Request) AddCertID(id CertID) (*SingleRequest, error) {
	if id.SerialNumber == nil {
		return nil, errorf("add cert id", ErrEncoding, "certificate identifier has no serial number")
	}
	entry := &SingleRequest{ReqCert: id.Clone()}
	r.entries = append(r.entries, entry)
	return entry, nil
}

// SingleRequests returns the entries in insertion order.
func (r *Request) SingleRequests() []*SingleRequest {
	out := make([]*SingleRequest, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries.
func (r *Request) Len() int {
	return len(r.entries)
}

// Extensions returns the request-level extensions.
func (r *Request) Extensions() []pkix.Extension {
	return r.extensions
}

// Signed reports whether the parsed request carried an optionalSignature.
func (r *Request) Signed() bool {
	return r.signed
}

// SetNonce sets (or replaces) the nonce extension. A nil nonce generates 16
// random bytes. The nonce actually stored is returned.
func (r *Request) SetNonce(nonce []byte) ([]byte, error) {
	if nonce == nil {
		nonce = make([]byte, 16)
		if _, err := rand.Read(nonce); err != nil {
			return nil, newError("set nonce", ErrCrypto, err)
		}
	}
	ext, err := nonceExtension(nonce)
	if err != nil {
		return nil, newError("set nonce", ErrEncoding, err)
	}

	for i := range r.extensions {
		if r.extensions[i].Id.Equal(OIDOcspNonce) {
			r.extensions[i] = ext
			return nonce, nil
		}
	}
	r.extensions = append(r.extensions, ext)
	return nonce, nil
}

// Nonce extracts the nonce extension from the request, if present.
func (r *Request) Nonce() []byte {
	return findNonce(r.extensions)
}

// Marshal encodes the request to DER. An empty request encodes an empty
// requestList.
func (r *Request) Marshal() ([]byte, error) {
	list := make([]singleRequest, len(r.entries))
	for i, e := range r.entries {
		list[i] = singleRequest{
			ReqCert:                 e.ReqCert,
			SingleRequestExtensions: e.Extensions,
		}
	}

	der, err := asn1.Marshal(ocspRequest{
		TBSRequest: tbsRequest{
			RequestList:       list,
			RequestExtensions: r.extensions,
		},
	})
	if err != nil {
		return nil, newError("marshal request", ErrEncoding, err)
	}
	return der, nil
}

// ParseRequest parses a DER-encoded OCSP request.
func ParseRequest(data []byte) (*Request, error) {
	const op = "parse request"

	var wire ocspRequest
	rest, err := asn1.Unmarshal(data, &wire)
	if err != nil {
		return nil, newError(op, ErrEncoding, err)
	}
	if len(rest) > 0 {
		return nil, errorf(op, ErrEncoding, "trailing data after OCSP request")
	}

	// Validate version
	if wire.TBSRequest.Version != 0 {
		return nil, errorf(op, ErrEncoding, "unsupported OCSP request version: %d", wire.TBSRequest.Version)
	}

	req := &Request{
		extensions: wire.TBSRequest.RequestExtensions,
		signed:     len(wire.OptionalSignature.FullBytes) > 0,
	}
	for _, sr := range wire.TBSRequest.RequestList {
		req.entries = append(req.entries, &SingleRequest{
			ReqCert:    sr.ReqCert.Clone(),
			Extensions: sr.SingleRequestExtensions,
		})
	}
	return req, nil
}

func nonceExtension(nonce []byte) (pkix.Extension, error) {
	value, err := asn1.Marshal(nonce)
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: OIDOcspNonce, Value: value}, nil
}

func findNonce(exts []pkix.Extension) []byte {
	for _, ext := range exts {
		if ext.Id.Equal(OIDOcspNonce) {
			// Nonce is an OCTET STRING
			var nonce []byte
			if rest, err := asn1.Unmarshal(ext.Value, &nonce); err == nil && len(rest) == 0 {
				return nonce
			}
			// Some responders put the raw bytes in the extension value.
			return bytes.Clone(ext.Value)
		}
	}
	return nil
}
