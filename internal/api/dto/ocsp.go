package dto

import "github.com/remiblancher/ocspkit/internal/report"

// OCSPRequestRequest asks the API to build a DER OCSP request.
type OCSPRequestRequest struct {
	// Issuer is the issuing CA certificate (PEM or base64 DER).
	Issuer BinaryData `json:"issuer"`

	// Certificates are the certificates to query.
	Certificates []BinaryData `json:"certificates,omitempty"`

	// Serials are hex serial numbers to query, in addition to Certificates.
	Serials []string `json:"serials,omitempty"`

	// Digest is the CertID hash algorithm (default: the server digest).
	Digest string `json:"digest,omitempty"`

	// Nonce adds a random nonce extension.
	Nonce bool `json:"nonce,omitempty"`
}

// OCSPRequestResponse returns the encoded request and its summary.
type OCSPRequestResponse struct {
	// Request is the DER request, base64 encoded.
	Request BinaryData `json:"request"`

	Info *report.RequestInfo `json:"info"`
}

// OCSPVerifyRequest runs the full client check on a response.
type OCSPVerifyRequest struct {
	// Response is the DER or PEM OCSP response.
	Response BinaryData `json:"response"`

	// Issuer is the issuing CA of the certificate being checked.
	Issuer BinaryData `json:"issuer"`

	// Certificate is the certificate being checked. Serial may be used instead.
	Certificate *BinaryData `json:"certificate,omitempty"`

	// Serial is the hex serial number being checked.
	Serial string `json:"serial,omitempty"`

	// Digest is the CertID hash algorithm used by the request.
	Digest string `json:"digest,omitempty"`

	// Untrusted are extra certificates offered for signer lookup and chain building.
	Untrusted []BinaryData `json:"untrusted,omitempty"`

	// TrustAnchors replace the server's configured roots for this call.
	TrustAnchors []BinaryData `json:"trust_anchors,omitempty"`

	// Flags are added to the server's configured flags.
	Flags []string `json:"flags,omitempty"`

	// Nonce is the hex nonce the response must echo.
	Nonce string `json:"nonce,omitempty"`

	// Skew and MaxAge override the configured time window ("5m", "1d").
	Skew   string `json:"skew,omitempty"`
	MaxAge string `json:"max_age,omitempty"`
}

// OCSPVerifyResponse is the verification outcome.
type OCSPVerifyResponse = report.VerifyInfo
