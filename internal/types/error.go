// Package types holds small shared types used by handlers and middleware.
package types

import "fmt"

// CustomError carries an HTTP status and a machine-readable category through
// the fiber error handler, so middleware failures render as the standard
// JSON error envelope instead of a bare 500.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%s [%d %s]", e.Message, e.Code, e.Type)
}
