// Package audit records OCSP security events in a tamper-evident log.
//
// Audit logs are separate from technical logs:
//   - One JSON event per line
//   - Each event hashes its predecessor (SHA-256 chain)
//   - All timestamps in UTC
//   - An audit failure fails the operation
//
// Never log key material; serials, subjects and outcomes are enough.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// EventType represents the category of audit event.
type EventType string

const (
	// EventOCSPRequest is emitted when a request is built.
	EventOCSPRequest EventType = "OCSP_REQUEST"

	// EventOCSPResponse is emitted when a response envelope is produced.
	EventOCSPResponse EventType = "OCSP_RESPONSE"

	// EventOCSPSign is emitted when a basic response is signed.
	EventOCSPSign EventType = "OCSP_SIGN"

	// EventOCSPVerify is emitted for every response verification.
	EventOCSPVerify EventType = "OCSP_VERIFY"

	// EventOCSPServe is emitted when the verification API starts.
	EventOCSPServe EventType = "OCSP_SERVE"
)

// Result represents the outcome of an audited operation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

func resultOf(success bool) Result {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}

// Actor represents who performed the action.
type Actor struct {
	Type string `json:"type"`           // "user", "service"
	ID   string `json:"id"`             // username or service identifier
	Host string `json:"host,omitempty"` // hostname where action occurred
}

// Object represents what was acted upon.
type Object struct {
	Type    string `json:"type"`              // "certificate", "ocsp_request", "ocsp_response"
	Serial  string `json:"serial,omitempty"`  // certificate serial number (hex)
	Subject string `json:"subject,omitempty"` // certificate or responder subject DN
	Path    string `json:"path,omitempty"`    // file path or endpoint
}

// Context provides additional details about the operation.
type Context struct {
	Algorithm      string `json:"algorithm,omitempty"`       // digest or signature algorithm
	ResponseStatus string `json:"response_status,omitempty"` // envelope status
	CertStatus     string `json:"cert_status,omitempty"`     // good, revoked, unknown
	Responder      string `json:"responder,omitempty"`       // responder ID
	Flags          string `json:"flags,omitempty"`           // trust flags in effect
	Reason         string `json:"reason,omitempty"`          // revocation or failure reason
	Count          int    `json:"count,omitempty"`           // number of entries
	Nonce          bool   `json:"nonce,omitempty"`           // nonce present
}

// Event represents a single audit log entry.
type Event struct {
	EventType EventType `json:"event_type"`
	Timestamp string    `json:"timestamp"` // RFC3339 UTC
	Actor     Actor     `json:"actor"`
	Object    Object    `json:"object"`
	Context   Context   `json:"context,omitempty"`
	Result    Result    `json:"result"`
	HashPrev  string    `json:"hash_prev"`
	Hash      string    `json:"hash"`
}

// NewEvent creates an event stamped with the current time and the local user.
func NewEvent(eventType EventType, result Result) *Event {
	hostname, _ := os.Hostname()
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	if username == "" {
		username = "unknown"
	}

	return &Event{
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Actor:     Actor{Type: "user", ID: username, Host: hostname},
		Result:    result,
	}
}

// WithObject sets the object field.
func (e *Event) WithObject(obj Object) *Event {
	e.Object = obj
	return e
}

// WithContext sets the context field.
func (e *Event) WithContext(ctx Context) *Event {
	e.Context = ctx
	return e
}

// WithActor overrides the default actor.
func (e *Event) WithActor(actor Actor) *Event {
	e.Actor = actor
	return e
}

// Validate checks that required fields are present.
func (e *Event) Validate() error {
	switch {
	case e.EventType == "":
		return fmt.Errorf("event_type is required")
	case e.Timestamp == "":
		return fmt.Errorf("timestamp is required")
	case e.Actor.Type == "" || e.Actor.ID == "":
		return fmt.Errorf("actor type and id are required")
	case e.Result == "":
		return fmt.Errorf("result is required")
	}
	return nil
}

// CanonicalJSON returns the event without its own hash, for chaining.
func (e *Event) CanonicalJSON() ([]byte, error) {
	type eventForHash struct {
		EventType EventType `json:"event_type"`
		Timestamp string    `json:"timestamp"`
		Actor     Actor     `json:"actor"`
		Object    Object    `json:"object"`
		Context   Context   `json:"context,omitempty"`
		Result    Result    `json:"result"`
		HashPrev  string    `json:"hash_prev"`
	}

	return json.Marshal(eventForHash{
		EventType: e.EventType,
		Timestamp: e.Timestamp,
		Actor:     e.Actor,
		Object:    e.Object,
		Context:   e.Context,
		Result:    e.Result,
		HashPrev:  e.HashPrev,
	})
}

// JSON returns the full event as JSON.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}
