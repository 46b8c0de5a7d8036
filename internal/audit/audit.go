package audit

import (
	"fmt"
	"sync"
)

var (
	globalWriter Writer = NopWriter{}
	globalMu     sync.RWMutex
	enabled      bool
)

// Init installs w as the process-wide audit writer. A nil writer disables
// audit logging.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter = NopWriter{}
		enabled = false
		return nil
	}
	globalWriter = w
	enabled = true
	return nil
}

// InitFile installs a FileWriter for path. An empty path disables auditing.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Close closes the global writer and disables audit logging.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter = NopWriter{}
	enabled = false
	return err
}

// Enabled returns whether audit logging is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Log writes an event to the global writer.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	return w.Write(event)
}

// MustLog is Log with an error suitable for failing the parent operation.
//
//	if err := audit.MustLog(event); err != nil {
//	    return nil, err
//	}
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// LogOCSPRequest logs the creation of a request for count certificates.
func LogOCSPRequest(path, serial, digest string, count int, nonce, success bool) error {
	event := NewEvent(EventOCSPRequest, resultOf(success)).
		WithObject(Object{Type: "ocsp_request", Serial: serial, Path: path}).
		WithContext(Context{Algorithm: digest, Count: count, Nonce: nonce})
	return MustLog(event)
}

// LogOCSPSign logs the signing of a basic response.
func LogOCSPSign(path, responder, algorithm string, count int, success bool, reason string) error {
	event := NewEvent(EventOCSPSign, resultOf(success)).
		WithObject(Object{Type: "ocsp_response", Subject: responder, Path: path}).
		WithContext(Context{Algorithm: algorithm, Count: count, Reason: reason})
	return MustLog(event)
}

// LogOCSPResponse logs the production of a response envelope.
func LogOCSPResponse(path, status string, success bool) error {
	event := NewEvent(EventOCSPResponse, resultOf(success)).
		WithObject(Object{Type: "ocsp_response", Path: path}).
		WithContext(Context{ResponseStatus: status})
	return MustLog(event)
}

// LogOCSPVerify logs a verification outcome for one certificate.
func LogOCSPVerify(serial, certStatus, responder, flags string, success bool, reason string) error {
	event := NewEvent(EventOCSPVerify, resultOf(success)).
		WithObject(Object{Type: "certificate", Serial: serial}).
		WithContext(Context{
			CertStatus: certStatus,
			Responder:  responder,
			Flags:      flags,
			Reason:     reason,
		})
	return MustLog(event)
}

// LogOCSPServe logs the start of the verification API.
func LogOCSPServe(addr string) error {
	event := NewEvent(EventOCSPServe, ResultSuccess).
		WithActor(Actor{Type: "service", ID: "ocspkit"}).
		WithObject(Object{Type: "service", Path: addr})
	return MustLog(event)
}
