package integration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidProductID     = errors.New("integration: invalid product ID")
	ErrPublicationNotFound  = errors.New("integration: publication not found")
	ErrImportInFlight       = errors.New("integration: import already in flight for product")
	ErrRunNotFound          = errors.New("integration: import run not found")
	ErrInvalidRunTransition = errors.New("integration: invalid import run transition")
	ErrProductNotCreated    = errors.New("integration: catalog product has not been created")
	ErrStoreClosed          = errors.New("integration: store closed")
)

// ExternalFetchFailedMessage is the user-facing message for any external fetch failure.
const ExternalFetchFailedMessage = "Failed to fetch product from Fake Store API."

// ExternalFetchError reports a failed read from the external product source.
// StatusCode is set when the source answered with a non-2xx status.
type ExternalFetchError struct {
	ProductID  int64
	StatusCode int
	Reason     string
	Err        error
}

func (e *ExternalFetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "integration: fetch external product %d", e.ProductID)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ExternalFetchError) Unwrap() error {
	return e.Err
}

// TransportError reports that a catalog operation never produced a usable
// GraphQL payload: network failure, timeout, non-2xx, undecodable body or
// top-level GraphQL errors.
type TransportError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("integration: catalog %s transport failure", e.Operation)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CatalogValidationError carries the userErrors the catalog returned for a mutation.
type CatalogValidationError struct {
	Operation  string
	UserErrors []UserError
}

func (e *CatalogValidationError) Error() string {
	parts := make([]string, 0, len(e.UserErrors))
	for _, ue := range e.UserErrors {
		field := ue.FieldPath()
		message := strings.TrimSpace(ue.Message)
		if field == "" {
			parts = append(parts, message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, message))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("integration: catalog %s failed with user errors", e.Operation)
	}
	return fmt.Sprintf("integration: catalog %s failed: %s", e.Operation, strings.Join(parts, "; "))
}

// ErrorKind classifies an error returned by a workflow step.
type ErrorKind string

const (
	ErrorKindExternalFetch     ErrorKind = "EXTERNAL_FETCH"
	ErrorKindTransport         ErrorKind = "TRANSPORT"
	ErrorKindCatalogValidation ErrorKind = "CATALOG_VALIDATION"
	ErrorKindInternal          ErrorKind = "INTERNAL"
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	return string(k)
}

// ClassifyError returns the kind of a workflow error.
func ClassifyError(err error) ErrorKind {
	var fetchErr *ExternalFetchError
	var transportErr *TransportError
	var validationErr *CatalogValidationError
	switch {
	case errors.As(err, &fetchErr):
		return ErrorKindExternalFetch
	case errors.As(err, &transportErr):
		return ErrorKindTransport
	case errors.As(err, &validationErr):
		return ErrorKindCatalogValidation
	default:
		return ErrorKindInternal
	}
}
