package dto

import "github.com/remiblancher/ocspkit/internal/report"

// InspectRequest carries a DER or PEM OCSP response to decode.
type InspectRequest struct {
	Response BinaryData `json:"response"`
}

// InspectResponse is the decoded summary of a response.
type InspectResponse = report.ResponseInfo
