package app

import "fmt"

// DomainError is the service-boundary error: the HTTP layer maps it straight
// to a response without inspecting anything else. Details carries optional
// structured payload, such as per-field validation messages.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
