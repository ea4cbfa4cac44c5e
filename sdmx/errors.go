package sdmx

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidPortalResponse is returned when the data portal does not respond
// with a status code the caller can handle
type ErrInvalidPortalResponse struct {
	actualCode int
	uri        string
}

// Error should be called by the user to print out the stringified version of the error
func (e ErrInvalidPortalResponse) Error() string {
	return fmt.Sprintf("invalid response from sdmx data portal - should be 2xx, got: %d, path: %s",
		e.actualCode,
		e.uri,
	)
}

// Code returns the status code received from the data portal if an error is returned
func (e ErrInvalidPortalResponse) Code() int {
	return e.actualCode
}

// NewErrInvalidPortalResponse creates an error referencing the status code and uri of the failed call
func NewErrInvalidPortalResponse(actualCode int, uri string) error {
	return ErrInvalidPortalResponse{
		actualCode: actualCode,
		uri:        uri,
	}
}

// IsNotFound reports whether err represents a 404 from the data portal, which
// structure lookups treat as "try the next candidate path"
func IsNotFound(err error) bool {
	var portalErr ErrInvalidPortalResponse
	if errors.As(err, &portalErr) {
		return portalErr.Code() == http.StatusNotFound
	}
	return false
}
