// Package errors provides error handling and HTTP status code mapping.
package errors

import (
	"errors"
	"net/http"

	"github.com/remiblancher/ocspkit/internal/api/dto"
	"github.com/remiblancher/ocspkit/internal/api/service"
	"github.com/remiblancher/ocspkit/internal/ocsp"
)

// Error codes for API responses.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION_ERROR"
	CodeEncoding       = "ENCODING_ERROR"
	CodeCryptoError    = "CRYPTO_ERROR"
	CodeStatus         = "STATUS_ERROR"
	CodeVerification   = "VERIFICATION_FAILED"
	CodeTimeValidity   = "TIME_VALIDITY_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// MapError maps an internal error to an HTTP status code and APIError.
func MapError(err error) (int, *dto.APIError) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, &dto.APIError{
			Code:    CodeInvalidRequest,
			Message: err.Error(),
		}
	case errors.Is(err, ocsp.ErrEncoding):
		return http.StatusBadRequest, &dto.APIError{
			Code:    CodeEncoding,
			Message: err.Error(),
		}
	case errors.Is(err, ocsp.ErrTimeValidity):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeTimeValidity,
			Message: err.Error(),
		}
	case errors.Is(err, ocsp.ErrVerification):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeVerification,
			Message: err.Error(),
		}
	case errors.Is(err, ocsp.ErrStatus):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeStatus,
			Message: err.Error(),
		}
	case errors.Is(err, ocsp.ErrCrypto):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeCryptoError,
			Message: err.Error(),
		}
	}

	// Operation context from the OCSP layer
	var ocspErr *ocsp.OCSPError
	if errors.As(err, &ocspErr) {
		return http.StatusInternalServerError, &dto.APIError{
			Code:    CodeInternal,
			Message: ocspErr.Error(),
			Details: map[string]string{"operation": ocspErr.Op},
		}
	}

	return http.StatusInternalServerError, &dto.APIError{
		Code:    CodeInternal,
		Message: "An internal error occurred",
	}
}

// NewBadRequest creates a bad request error.
func NewBadRequest(message string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeInvalidRequest,
		Message: message,
	}
}

// NewNotFound creates a not found error.
func NewNotFound(resource, id string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeNotFound,
		Message: resource + " not found",
		Details: map[string]string{"id": id},
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string, details map[string]string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
	}
}
