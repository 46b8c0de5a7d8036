package ocsp

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package satisfies errors.Is for
// exactly one of the first five.
var (
	// ErrEncoding indicates malformed DER or an unencodable value.
	ErrEncoding = errors.New("encoding error")

	// ErrCrypto indicates an unsupported digest or a digest/key failure.
	ErrCrypto = errors.New("crypto error")

	// ErrStatus indicates a non-successful response or a missing body.
	ErrStatus = errors.New("response status error")

	// ErrVerification indicates a signature or signer trust failure.
	ErrVerification = errors.New("verification failed")

	// ErrTimeValidity indicates the status record is outside its time window.
	ErrTimeValidity = errors.New("status time validity error")
)

// Time validity sub-kinds. Each also matches ErrTimeValidity.
var (
	ErrNotYetValid error = &timeValidityError{"status not yet valid"}
	ErrExpired     error = &timeValidityError{"status expired"}
	ErrTooOld      error = &timeValidityError{"status too old"}
)

type timeValidityError struct{ msg string }

func (e *timeValidityError) Error() string { return e.msg }
func (e *timeValidityError) Unwrap() error { return ErrTimeValidity }

// OCSPError carries the failing operation, the error kind and the cause.
// It supports errors.Is() and errors.As() for both the kind and the cause.
type OCSPError struct {
	Op   string // Operation: "parse request", "verify", "check validity", ...
	Kind error  // One of the sentinel kinds above
	Err  error  // Underlying cause (may be nil)
}

// Error implements the error interface.
func (e *OCSPError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ocsp %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("ocsp %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *OCSPError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, err error) *OCSPError {
	return &OCSPError{Op: op, Kind: kind, Err: err}
}

func errorf(op string, kind error, format string, args ...any) *OCSPError {
	return &OCSPError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}
