package services

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var (
	// ErrExtractionFailed means no readable text could be recovered from a document.
	ErrExtractionFailed = errors.New("could not read this document")

	// ErrUnsupportedType is returned for document types no extractor handles.
	ErrUnsupportedType = fmt.Errorf("unsupported document type: %w", ErrExtractionFailed)

	ErrEmptyCVText = errors.New("cv text is required")
)

// ExternalServiceError reports a failed or malformed response from an inference service.
type ExternalServiceError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *ExternalServiceError) Error() string {
	msg := fmt.Sprintf("%s error", e.Service)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func newExternalServiceError(service, message string, err error) *ExternalServiceError {
	extErr := &ExternalServiceError{
		Service: service,
		Message: message,
		Err:     err,
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		extErr.StatusCode = apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		extErr.StatusCode = apiErrPtr.Code
	}

	return extErr
}
