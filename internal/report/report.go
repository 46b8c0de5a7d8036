// Package report turns OCSP objects into flat, serializable summaries shared
// by the CLI and the HTTP API.
package report

import (
	"crypto/x509"
	"encoding/hex"
	"time"

	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
	"github.com/remiblancher/ocspkit/internal/ocsp"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

// CertIDInfo describes a certificate identifier.
type CertIDInfo struct {
	HashAlgorithm  string `json:"hash_algorithm" yaml:"hash_algorithm"`
	IssuerNameHash string `json:"issuer_name_hash" yaml:"issuer_name_hash"`
	IssuerKeyHash  string `json:"issuer_key_hash" yaml:"issuer_key_hash"`
	Serial         string `json:"serial" yaml:"serial"`
}

// StatusInfo describes one status record.
type StatusInfo struct {
	CertID           *CertIDInfo `json:"cert_id,omitempty" yaml:"cert_id,omitempty"`
	Status           string      `json:"status" yaml:"status"`
	RevocationTime   string      `json:"revocation_time,omitempty" yaml:"revocation_time,omitempty"`
	RevocationReason string      `json:"revocation_reason,omitempty" yaml:"revocation_reason,omitempty"`
	ThisUpdate       string      `json:"this_update" yaml:"this_update"`
	NextUpdate       string      `json:"next_update,omitempty" yaml:"next_update,omitempty"`
}

// CertInfo summarizes a certificate.
type CertInfo struct {
	Subject   string `json:"subject" yaml:"subject"`
	Issuer    string `json:"issuer" yaml:"issuer"`
	Serial    string `json:"serial" yaml:"serial"`
	NotBefore string `json:"not_before" yaml:"not_before"`
	NotAfter  string `json:"not_after" yaml:"not_after"`
	KeyType   string `json:"key_type" yaml:"key_type"`
}

// RequestInfo summarizes an OCSP request.
type RequestInfo struct {
	Entries []CertIDInfo `json:"entries" yaml:"entries"`
	Nonce   string       `json:"nonce,omitempty" yaml:"nonce,omitempty"`
	Signed  bool         `json:"signed,omitempty" yaml:"signed,omitempty"`
}

// ResponseInfo summarizes an OCSP response envelope and its basic body.
type ResponseInfo struct {
	ResponseStatus     string       `json:"response_status" yaml:"response_status"`
	ResponderID        string       `json:"responder_id,omitempty" yaml:"responder_id,omitempty"`
	ProducedAt         string       `json:"produced_at,omitempty" yaml:"produced_at,omitempty"`
	SignatureAlgorithm string       `json:"signature_algorithm,omitempty" yaml:"signature_algorithm,omitempty"`
	Nonce              string       `json:"nonce,omitempty" yaml:"nonce,omitempty"`
	Responses          []StatusInfo `json:"responses,omitempty" yaml:"responses,omitempty"`
	Certificates       []CertInfo   `json:"certificates,omitempty" yaml:"certificates,omitempty"`
}

// VerifyInfo is the outcome of a full client check.
type VerifyInfo struct {
	Valid       bool        `json:"valid" yaml:"valid"`
	Error       string      `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind   string      `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Flags       string      `json:"flags" yaml:"flags"`
	Status      *StatusInfo `json:"status,omitempty" yaml:"status,omitempty"`
	ProducedAt  string      `json:"produced_at,omitempty" yaml:"produced_at,omitempty"`
	ResponderID string      `json:"responder_id,omitempty" yaml:"responder_id,omitempty"`
	Signer      *CertInfo   `json:"signer,omitempty" yaml:"signer,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// FromCertID summarizes id.
func FromCertID(id *ocsp.CertID) CertIDInfo {
	info := CertIDInfo{
		IssuerNameHash: hex.EncodeToString(id.IssuerNameHash),
		IssuerKeyHash:  hex.EncodeToString(id.IssuerKeyHash),
	}
	if h, err := id.Hash(); err == nil {
		info.HashAlgorithm = pkicrypto.HashName(h)
	} else {
		info.HashAlgorithm = id.HashAlgorithm.Algorithm.String()
	}
	info.Serial = x509util.FormatSerial(id.SerialNumber)
	return info
}

// FromStatus summarizes a status record.
func FromStatus(s *ocsp.Status) StatusInfo {
	info := StatusInfo{
		Status:     s.CertStatus.String(),
		ThisUpdate: formatTime(s.ThisUpdate),
		NextUpdate: formatTime(s.NextUpdate),
	}
	if s.CertStatus == ocsp.CertStatusRevoked {
		info.RevocationTime = formatTime(s.RevocationTime)
		if s.Reason != ocsp.ReasonNoStatus {
			info.RevocationReason = s.Reason.String()
		}
	}
	return info
}

// FromCertificate summarizes cert.
func FromCertificate(cert *x509.Certificate) CertInfo {
	return CertInfo{
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		Serial:    x509util.FormatSerial(cert.SerialNumber),
		NotBefore: formatTime(cert.NotBefore),
		NotAfter:  formatTime(cert.NotAfter),
		KeyType:   x509util.GetCertificateType(cert).String(),
	}
}

// FromRequest summarizes req.
func FromRequest(req *ocsp.Request) *RequestInfo {
	info := &RequestInfo{Signed: req.Signed()}
	for _, sr := range req.SingleRequests() {
		info.Entries = append(info.Entries, FromCertID(&sr.ReqCert))
	}
	if n := req.Nonce(); n != nil {
		info.Nonce = hex.EncodeToString(n)
	}
	return info
}

// FromResponse summarizes resp. A non-successful envelope only carries its status.
func FromResponse(resp *ocsp.Response) *ResponseInfo {
	info := &ResponseInfo{ResponseStatus: resp.Status().String()}
	basic, err := resp.Basic()
	if err != nil {
		return info
	}

	info.ResponderID = basic.ResponderID().String()
	info.ProducedAt = formatTime(basic.ProducedAt())
	info.SignatureAlgorithm = x509util.AlgorithmName(basic.SignatureAlgorithm().Algorithm)
	if n := basic.Nonce(); n != nil {
		info.Nonce = hex.EncodeToString(n)
	}
	for _, sr := range basic.Responses() {
		st := FromStatus(&sr.Status)
		id := FromCertID(&sr.CertID)
		st.CertID = &id
		info.Responses = append(info.Responses, st)
	}
	for _, c := range basic.Certificates() {
		info.Certificates = append(info.Certificates, FromCertificate(c))
	}
	return info
}

// FromCheck summarizes the outcome of ocsp.Check. A nil err means success.
func FromCheck(result *ocsp.CheckResult, flags ocsp.TrustFlags, err error) *VerifyInfo {
	info := &VerifyInfo{Valid: err == nil, Flags: flags.String()}
	if err != nil {
		info.Error = err.Error()
		info.ErrorKind = ErrorKind(err)
		return info
	}

	st := FromStatus(&result.Status)
	info.Status = &st
	info.ProducedAt = formatTime(result.ProducedAt)
	info.ResponderID = result.ResponderID.String()
	if result.Signer != nil {
		signer := FromCertificate(result.Signer)
		info.Signer = &signer
	}
	return info
}
