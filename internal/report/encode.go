package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/remiblancher/ocspkit/internal/ocsp"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ParseFormat parses a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (text, json, yaml, cbor)", s)
	}
}

// ContentType returns the media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatCBOR:
		return "application/cbor"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Texter renders a report for humans.
type Texter interface {
	WriteText(w io.Writer) error
}

var cborMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Encode writes v to w in format f. Text requires v to implement Texter.
func Encode(w io.Writer, v any, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatCBOR:
		return cborMode.NewEncoder(w).Encode(v)
	case FormatText, "":
		t, ok := v.(Texter)
		if !ok {
			return fmt.Errorf("%T has no text form", v)
		}
		return t.WriteText(w)
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
}

// ErrorKind names the ocsp error kind of err, or "internal".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ocsp.ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, ocsp.ErrExpired):
		return "expired"
	case errors.Is(err, ocsp.ErrTooOld):
		return "too_old"
	case errors.Is(err, ocsp.ErrTimeValidity):
		return "time_validity"
	case errors.Is(err, ocsp.ErrVerification):
		return "verification"
	case errors.Is(err, ocsp.ErrStatus):
		return "status"
	case errors.Is(err, ocsp.ErrEncoding):
		return "encoding"
	case errors.Is(err, ocsp.ErrCrypto):
		return "crypto"
	default:
		return "internal"
	}
}

// textWriter accumulates the first write error.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) field(indent int, label, value string) {
	if value == "" {
		return
	}
	t.printf("%s%-21s%s\n", strings.Repeat(" ", indent), label+":", value)
}

func (s *StatusInfo) writeText(t *textWriter, indent int) {
	if s.CertID != nil {
		t.field(indent, "Serial", s.CertID.Serial)
		t.field(indent, "Hash Algorithm", s.CertID.HashAlgorithm)
		t.field(indent, "Issuer Name Hash", s.CertID.IssuerNameHash)
		t.field(indent, "Issuer Key Hash", s.CertID.IssuerKeyHash)
	}
	t.field(indent, "Cert Status", s.Status)
	t.field(indent, "Revocation Time", s.RevocationTime)
	t.field(indent, "Revocation Reason", s.RevocationReason)
	t.field(indent, "This Update", s.ThisUpdate)
	t.field(indent, "Next Update", s.NextUpdate)
}

func (c *CertInfo) writeText(t *textWriter, indent int) {
	t.field(indent, "Subject", c.Subject)
	t.field(indent, "Issuer", c.Issuer)
	t.field(indent, "Serial", c.Serial)
	t.field(indent, "Not Before", c.NotBefore)
	t.field(indent, "Not After", c.NotAfter)
	t.field(indent, "Key Type", c.KeyType)
}

// WriteText implements Texter.
func (r *RequestInfo) WriteText(w io.Writer) error {
	t := &textWriter{w: w}
	t.printf("OCSP Request:\n")
	t.field(2, "Entries", fmt.Sprint(len(r.Entries)))
	t.field(2, "Nonce", r.Nonce)
	if r.Signed {
		t.field(2, "Signed", "yes")
	}
	for i := range r.Entries {
		e := &r.Entries[i]
		t.printf("  Certificate ID #%d:\n", i+1)
		t.field(4, "Serial", e.Serial)
		t.field(4, "Hash Algorithm", e.HashAlgorithm)
		t.field(4, "Issuer Name Hash", e.IssuerNameHash)
		t.field(4, "Issuer Key Hash", e.IssuerKeyHash)
	}
	return t.err
}

// WriteText implements Texter.
func (r *ResponseInfo) WriteText(w io.Writer) error {
	t := &textWriter{w: w}
	t.printf("OCSP Response:\n")
	t.field(2, "Response Status", r.ResponseStatus)
	t.field(2, "Responder ID", r.ResponderID)
	t.field(2, "Produced At", r.ProducedAt)
	t.field(2, "Signature Algorithm", r.SignatureAlgorithm)
	t.field(2, "Nonce", r.Nonce)
	for i := range r.Responses {
		t.printf("  Response #%d:\n", i+1)
		r.Responses[i].writeText(t, 4)
	}
	for i := range r.Certificates {
		t.printf("  Certificate #%d:\n", i+1)
		r.Certificates[i].writeText(t, 4)
	}
	return t.err
}

// WriteText implements Texter.
func (v *VerifyInfo) WriteText(w io.Writer) error {
	t := &textWriter{w: w}
	if v.Valid {
		t.printf("Response verify OK\n")
	} else {
		t.printf("Response verify FAILED\n")
		t.field(2, "Error", v.Error)
		t.field(2, "Kind", v.ErrorKind)
	}
	t.field(2, "Flags", v.Flags)
	t.field(2, "Responder ID", v.ResponderID)
	t.field(2, "Produced At", v.ProducedAt)
	if v.Status != nil {
		v.Status.writeText(t, 2)
	}
	if v.Signer != nil {
		t.printf("  Signer:\n")
		v.Signer.writeText(t, 4)
	}
	return t.err
}
