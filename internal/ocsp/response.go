package ocsp

import "encoding/asn1"

// ocspResponse is the wire form of the response envelope (RFC 6960 §4.2.1).
// OCSPResponse ::= SEQUENCE {
//
//	responseStatus         OCSPResponseStatus,
//	responseBytes          [0] EXPLICIT ResponseBytes OPTIONAL }
type ocspResponse struct {
	Status        asn1.Enumerated
	ResponseBytes responseBytes `asn1:"optional,explicit,tag:0"`
}

// responseBytes holds the actual response data.
// ResponseBytes ::= SEQUENCE {
//
//	responseType   OBJECT IDENTIFIER,
//	response       OCTET STRING }
type responseBytes struct {
	ResponseType asn1.ObjectIdentifier
	Response     []byte
}

// Response is the top-level OCSP response: a status code plus, for successful
// responses, a signed basic response.
type Response struct {
	status       ResponseStatus
	basic        *BasicResponse
	responseType asn1.ObjectIdentifier
}

// CreateResponse builds an envelope around a precomputed basic response.
// The status/body pairing is not checked here: unrecognized status codes and
// a successful status without a body are encoded as given, and Basic reports
// ErrStatus for them. The error return is kept for API stability.
func CreateResponse(status ResponseStatus, body *BasicResponse) (*Response, error) {
	resp := &Response{status: status}
	if body != nil {
		resp.basic = body
		resp.responseType = OIDOcspBasic
	}
	return resp, nil
}

// NewErrorResponse creates a response that carries only a non-successful status.
func NewErrorResponse(status ResponseStatus) (*Response, error) {
	if status == StatusSuccessful {
		return nil, errorf("create response", ErrStatus, "cannot create error response with successful status")
	}
	return CreateResponse(status, nil)
}

// Status returns the response status code.
func (r *Response) Status() ResponseStatus {
	return r.status
}

// ResponseType returns the OID of the response body, or nil when there is none.
func (r *Response) ResponseType() asn1.ObjectIdentifier {
	return r.responseType
}

// Basic returns an independent copy of the basic response. It fails with
// ErrStatus when the status is not successful or no basic body is present.
func (r *Response) Basic() (*BasicResponse, error) {
	const op = "basic response"

	if r.status != StatusSuccessful {
		return nil, errorf(op, ErrStatus, "response not successful: %s", r.status)
	}
	if r.basic == nil {
		if len(r.responseType) > 0 && !r.responseType.Equal(OIDOcspBasic) {
			return nil, errorf(op, ErrStatus, "unsupported response type %v", r.responseType)
		}
		return nil, errorf(op, ErrStatus, "response has no body")
	}
	return ParseBasicResponse(r.basic.raw)
}

// Marshal encodes the response to DER. The basic response bytes are emitted
// verbatim.
func (r *Response) Marshal() ([]byte, error) {
	wire := ocspResponse{Status: asn1.Enumerated(r.status)}
	if r.basic != nil {
		wire.ResponseBytes = responseBytes{
			ResponseType: OIDOcspBasic,
			Response:     r.basic.raw,
		}
	}

	der, err := asn1.Marshal(wire)
	if err != nil {
		return nil, newError("marshal response", ErrEncoding, err)
	}
	return der, nil
}

// ParseResponse parses a DER-encoded OCSP response. A basic body is parsed
// eagerly; a body of any other type is dropped.
func ParseResponse(data []byte) (*Response, error) {
	const op = "parse response"

	var wire ocspResponse
	rest, err := asn1.Unmarshal(data, &wire)
	if err != nil {
		return nil, newError(op, ErrEncoding, err)
	}
	if len(rest) > 0 {
		return nil, errorf(op, ErrEncoding, "trailing data after OCSP response")
	}

	resp := &Response{status: ResponseStatus(wire.Status)}
	if len(wire.ResponseBytes.ResponseType) == 0 {
		return resp, nil
	}

	resp.responseType = wire.ResponseBytes.ResponseType
	if !resp.responseType.Equal(OIDOcspBasic) {
		return resp, nil
	}

	basic, err := ParseBasicResponse(wire.ResponseBytes.Response)
	if err != nil {
		return nil, err
	}
	resp.basic = basic
	return resp, nil
}
