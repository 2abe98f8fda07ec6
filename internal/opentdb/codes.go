package opentdb

import (
	"errors"
	"fmt"
)

// ResponseCode is the status code embedded in every remote payload
type ResponseCode int

const (
	CodeSuccess          ResponseCode = 0
	CodeNoResults        ResponseCode = 1
	CodeInvalidParameter ResponseCode = 2
	CodeTokenNotFound    ResponseCode = 3
	CodeTokenEmpty       ResponseCode = 4
	CodeRateLimit        ResponseCode = 5
)

var codeDescriptions = map[ResponseCode]string{
	CodeSuccess:          "Success - Returned results successfully.",
	CodeNoResults:        "No Results - Could not return results. The API doesn't have enough questions for your query. (Ex. Asking for 50 Questions in a Category that only has 20.)",
	CodeInvalidParameter: "Invalid Parameter - Contains an invalid parameter. Arguments passed in aren't valid. (Ex. Amount = Five)",
	CodeTokenNotFound:    "Token Not Found - Session Token does not exist.",
	CodeTokenEmpty:       "Token Empty - Session Token has returned all possible questions for the specified query. Resetting the Token is necessary.",
	CodeRateLimit:        "Rate Limit - Too many requests have occurred. Each IP can only access the API once every 5 seconds.",
}

// Description returns the human-readable meaning of the code
func (c ResponseCode) Description() string {
	if d, ok := codeDescriptions[c]; ok {
		return d
	}
	return "Unknown response code"
}

// ProtocolError is returned when a validated payload carries a non-zero code
type ProtocolError struct {
	Code        ResponseCode
	Description string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("Error from API: %d - %s", e.Code, e.Description)
}

func newProtocolError(code ResponseCode) *ProtocolError {
	return &ProtocolError{Code: code, Description: code.Description()}
}

// CodeOf extracts the response code from err, if it is a ProtocolError
func CodeOf(err error) (ResponseCode, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}

// IsTokenEmpty reports whether err means the session token is exhausted
func IsTokenEmpty(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeTokenEmpty
}
