// Package ocsp implements the client-side OCSP (RFC 6960) core: building and
// parsing requests and responses, finding a certificate's status inside a
// signed basic response, checking the status time window, and verifying the
// response signer against a trust store.
package ocsp

import (
	"fmt"
	"strings"
)

// ResponseStatus represents the status of an OCSP response.
type ResponseStatus int

const (
	StatusSuccessful       ResponseStatus = 0
	StatusMalformedRequest ResponseStatus = 1
	StatusInternalError    ResponseStatus = 2
	StatusTryLater         ResponseStatus = 3
	// 4 is not used
	StatusSigRequired  ResponseStatus = 5
	StatusUnauthorized ResponseStatus = 6
)

// String returns a human-readable status string.
func (s ResponseStatus) String() string {
	switch s {
	case StatusSuccessful:
		return "successful"
	case StatusMalformedRequest:
		return "malformedRequest"
	case StatusInternalError:
		return "internalError"
	case StatusTryLater:
		return "tryLater"
	case StatusSigRequired:
		return "sigRequired"
	case StatusUnauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// IsKnown reports whether s is one of the RFC 6960 response status codes.
func (s ResponseStatus) IsKnown() bool {
	switch s {
	case StatusSuccessful, StatusMalformedRequest, StatusInternalError,
		StatusTryLater, StatusSigRequired, StatusUnauthorized:
		return true
	}
	return false
}

// ParseResponseStatus maps a status name such as "tryLater" to its code.
func ParseResponseStatus(s string) (ResponseStatus, error) {
	for _, st := range []ResponseStatus{
		StatusSuccessful, StatusMalformedRequest, StatusInternalError,
		StatusTryLater, StatusSigRequired, StatusUnauthorized,
	} {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown response status: %s", s)
}

// CertStatus represents the revocation status of a certificate.
type CertStatus int

const (
	CertStatusGood    CertStatus = 0
	CertStatusRevoked CertStatus = 1
	CertStatusUnknown CertStatus = 2
)

// String returns a human-readable status string.
func (s CertStatus) String() string {
	switch s {
	case CertStatusGood:
		return "good"
	case CertStatusRevoked:
		return "revoked"
	case CertStatusUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseCertStatus maps "good", "revoked" or "unknown" to a CertStatus.
func ParseCertStatus(s string) (CertStatus, error) {
	switch strings.ToLower(s) {
	case "good":
		return CertStatusGood, nil
	case "revoked":
		return CertStatusRevoked, nil
	case "unknown":
		return CertStatusUnknown, nil
	default:
		return 0, fmt.Errorf("unknown certificate status: %s", s)
	}
}

// RevocationReason per RFC 5280 §5.3.1
type RevocationReason int

const (
	// ReasonNoStatus means no reason applies: the certificate is not revoked,
	// or the responder omitted the reason.
	ReasonNoStatus RevocationReason = -1

	ReasonUnspecified          RevocationReason = 0
	ReasonKeyCompromise        RevocationReason = 1
	ReasonCACompromise         RevocationReason = 2
	ReasonAffiliationChanged   RevocationReason = 3
	ReasonSuperseded           RevocationReason = 4
	ReasonCessationOfOperation RevocationReason = 5
	ReasonCertificateHold      RevocationReason = 6
	// 7 is not used
	ReasonRemoveFromCRL      RevocationReason = 8
	ReasonPrivilegeWithdrawn RevocationReason = 9
	ReasonAACompromise       RevocationReason = 10
)

var reasonNames = map[RevocationReason]string{
	ReasonNoStatus:             "noStatus",
	ReasonUnspecified:          "unspecified",
	ReasonKeyCompromise:        "keyCompromise",
	ReasonCACompromise:         "cACompromise",
	ReasonAffiliationChanged:   "affiliationChanged",
	ReasonSuperseded:           "superseded",
	ReasonCessationOfOperation: "cessationOfOperation",
	ReasonCertificateHold:      "certificateHold",
	ReasonRemoveFromCRL:        "removeFromCRL",
	ReasonPrivilegeWithdrawn:   "privilegeWithdrawn",
	ReasonAACompromise:         "aACompromise",
}

func (r RevocationReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// ParseRevocationReason maps a reason name (case-insensitive) to its code.
func ParseRevocationReason(s string) (RevocationReason, error) {
	for r, name := range reasonNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}
	return ReasonNoStatus, fmt.Errorf("unknown revocation reason: %s", s)
}
