// Package service provides business logic for the REST API.
package service

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/remiblancher/ocspkit/internal/api/dto"
	"github.com/remiblancher/ocspkit/internal/audit"
	"github.com/remiblancher/ocspkit/internal/config"
	pkicrypto "github.com/remiblancher/ocspkit/internal/crypto"
	"github.com/remiblancher/ocspkit/internal/ocsp"
	"github.com/remiblancher/ocspkit/internal/report"
	"github.com/remiblancher/ocspkit/internal/x509util"
)

// ErrInvalidInput marks errors caused by malformed request fields.
var ErrInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// OCSPService builds, inspects and verifies OCSP messages for the REST API.
type OCSPService struct {
	check  ocsp.CheckConfig
	digest crypto.Hash
}

// NewOCSPService creates a service whose verifications start from check.
// digest is the CertID hash used when a request does not name one.
func NewOCSPService(check ocsp.CheckConfig, digest crypto.Hash) *OCSPService {
	if digest == 0 {
		digest = crypto.SHA1
	}
	return &OCSPService{check: check, digest: digest}
}

// NewOCSPServiceFromConfig creates a service from a loaded configuration.
func NewOCSPServiceFromConfig(cfg *config.Config) (*OCSPService, error) {
	check, err := cfg.CheckConfig()
	if err != nil {
		return nil, err
	}
	digest, err := cfg.Hash()
	if err != nil {
		return nil, err
	}
	return NewOCSPService(check, digest), nil
}

// Ready reports whether verification can run with the configured trust.
func (s *OCSPService) Ready() bool {
	if s.check.Flags.Has(ocsp.FlagNoVerify) {
		return true
	}
	return s.check.Store != nil && len(s.check.Store.Roots()) > 0
}

// Request builds a DER OCSP request for the given certificates and serials.
func (s *OCSPService) Request(ctx context.Context, req *dto.OCSPRequestRequest) (*dto.OCSPRequestResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issuer, err := decodeCertificate(&req.Issuer, "issuer")
	if err != nil {
		return nil, err
	}
	digest, err := s.digestFor(req.Digest)
	if err != nil {
		return nil, err
	}

	var serials []*big.Int
	for i := range req.Certificates {
		cert, err := decodeCertificate(&req.Certificates[i], fmt.Sprintf("certificates[%d]", i))
		if err != nil {
			return nil, err
		}
		serials = append(serials, cert.SerialNumber)
	}
	for _, sn := range req.Serials {
		n, err := x509util.ParseSerial(sn)
		if err != nil {
			return nil, invalidf("%v", err)
		}
		serials = append(serials, n)
	}
	if len(serials) == 0 {
		return nil, invalidf("at least one certificate or serial is required")
	}

	ocspReq := ocsp.NewRequest()
	for _, n := range serials {
		id, err := ocsp.NewCertIDFromSerial(digest, issuer, n)
		if err != nil {
			return nil, err
		}
		if _, err := ocspReq.AddCertID(*id); err != nil {
			return nil, err
		}
	}
	if req.Nonce {
		if _, err := ocspReq.SetNonce(nil); err != nil {
			return nil, err
		}
	}

	der, err := ocspReq.Marshal()
	if err != nil {
		return nil, err
	}

	if err := audit.LogOCSPRequest("", x509util.FormatSerial(serials[0]), pkicrypto.HashName(digest), len(serials), req.Nonce, true); err != nil {
		return nil, err
	}

	return &dto.OCSPRequestResponse{
		Request: dto.NewBase64(der),
		Info:    report.FromRequest(ocspReq),
	}, nil
}

// Inspect decodes a response without verifying it.
func (s *OCSPService) Inspect(ctx context.Context, req *dto.InspectRequest) (*dto.InspectResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	der, err := decodeDER(&req.Response, "response")
	if err != nil {
		return nil, err
	}
	resp, err := ocsp.ParseResponse(der)
	if err != nil {
		return nil, err
	}
	return report.FromResponse(resp), nil
}

// Verify runs the full client check. A failed check is reported in the
// result, not as an error; errors are reserved for unusable input.
func (s *OCSPService) Verify(ctx context.Context, req *dto.OCSPVerifyRequest) (*dto.OCSPVerifyResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	der, err := decodeDER(&req.Response, "response")
	if err != nil {
		return nil, err
	}
	id, err := s.certIDFor(req)
	if err != nil {
		return nil, err
	}
	cfg, err := s.checkConfigFor(req)
	if err != nil {
		return nil, err
	}

	result, checkErr := ocsp.Check(der, id, cfg)
	info := report.FromCheck(result, cfg.Flags, checkErr)

	serial := x509util.FormatSerial(id.SerialNumber)
	if checkErr != nil {
		err = audit.LogOCSPVerify(serial, "", "", info.Flags, false, checkErr.Error())
	} else {
		err = audit.LogOCSPVerify(serial, info.Status.Status, info.ResponderID, info.Flags, true, "")
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *OCSPService) digestFor(name string) (crypto.Hash, error) {
	if name == "" {
		return s.digest, nil
	}
	h, err := pkicrypto.ParseHash(name)
	if err != nil {
		return 0, invalidf("%v", err)
	}
	return h, nil
}

func (s *OCSPService) certIDFor(req *dto.OCSPVerifyRequest) (*ocsp.CertID, error) {
	issuer, err := decodeCertificate(&req.Issuer, "issuer")
	if err != nil {
		return nil, err
	}
	digest, err := s.digestFor(req.Digest)
	if err != nil {
		return nil, err
	}

	var serial *big.Int
	switch {
	case req.Certificate != nil:
		cert, err := decodeCertificate(req.Certificate, "certificate")
		if err != nil {
			return nil, err
		}
		serial = cert.SerialNumber
	case req.Serial != "":
		if serial, err = x509util.ParseSerial(req.Serial); err != nil {
			return nil, invalidf("%v", err)
		}
	default:
		return nil, invalidf("certificate or serial is required")
	}
	return ocsp.NewCertIDFromSerial(digest, issuer, serial)
}

// checkConfigFor layers per-request options over the configured check.
func (s *OCSPService) checkConfigFor(req *dto.OCSPVerifyRequest) (ocsp.CheckConfig, error) {
	cfg := s.check

	extra, err := ocsp.ParseTrustFlags(req.Flags)
	if err != nil {
		return cfg, invalidf("%v", err)
	}
	cfg.Flags |= extra

	untrusted, err := decodeCertificates(req.Untrusted, "untrusted")
	if err != nil {
		return cfg, err
	}
	cfg.Certs = append(append([]*x509.Certificate(nil), s.check.Certs...), untrusted...)

	if len(req.TrustAnchors) > 0 {
		anchors, err := decodeCertificates(req.TrustAnchors, "trust_anchors")
		if err != nil {
			return cfg, err
		}
		store := ocsp.NewTrustStore(anchors...)
		if s.check.Store != nil {
			store.Purpose = s.check.Store.Purpose
			store.MaxDepth = s.check.Store.MaxDepth
			store.Clock = s.check.Store.Clock
		}
		cfg.Store = store
	}

	if req.Nonce != "" {
		if cfg.Nonce, err = hex.DecodeString(req.Nonce); err != nil {
			return cfg, invalidf("nonce: %v", err)
		}
	}
	if req.Skew != "" {
		d, err := config.ParseDuration(req.Skew)
		if err != nil || d < 0 {
			return cfg, invalidf("skew: invalid duration %q", req.Skew)
		}
		cfg.Skew = d
	}
	if req.MaxAge != "" {
		d, err := config.ParseDuration(req.MaxAge)
		if err != nil || d < 0 {
			return cfg, invalidf("max_age: invalid duration %q", req.MaxAge)
		}
		cfg.MaxAge = d
	}
	return cfg, nil
}

func decodeDER(b *dto.BinaryData, field string) ([]byte, error) {
	data, err := b.Decode()
	if err != nil {
		return nil, invalidf("%s: %v", field, err)
	}
	return x509util.DecodeDER(data), nil
}

func decodeCertificate(b *dto.BinaryData, field string) (*x509.Certificate, error) {
	data, err := b.Decode()
	if err != nil {
		return nil, invalidf("%s: %v", field, err)
	}
	certs, err := x509util.ParseCertificates(data)
	if err != nil {
		return nil, invalidf("%s: %v", field, err)
	}
	return certs[0], nil
}

func decodeCertificates(list []dto.BinaryData, field string) ([]*x509.Certificate, error) {
	var out []*x509.Certificate
	for i := range list {
		data, err := list[i].Decode()
		if err != nil {
			return nil, invalidf("%s[%d]: %v", field, i, err)
		}
		certs, err := x509util.ParseCertificates(data)
		if err != nil {
			return nil, invalidf("%s[%d]: %v", field, i, err)
		}
		out = append(out, certs...)
	}
	return out, nil
}
