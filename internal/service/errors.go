package service

import "fmt"

// ErrorKind classifies a domain error for transport mapping.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotAuthenticated
	KindNotAuthorized
	KindUnprocessable
)

// Stable machine-readable error codes. Callers branch on these, never on the
// message text.
const (
	CodeAccountNotFound              = "AccountNotFound"
	CodeAccountDisabled              = "AccountDisabled"
	CodeAccountLocked                = "AccountLocked"
	CodeIncorrectPassword            = "IncorrectPassword"
	CodeUsernamePasswordNotValid     = "UsernamePasswordNotValid"
	CodeInvalidPassword              = "InvalidPassword"
	CodeInvalidEmail                 = "InvalidEmail"
	CodeInvalidRole                  = "InvalidRole"
	CodeNewPasswordEqualsOldPassword = "NewPasswordEqualsOldPassword"
	CodeUserAlreadyExists            = "UserAlreadyExists"
	CodeNotAuthenticated             = "NotAuthenticated"
	CodeNotAuthorized                = "NotAuthorized"
	CodeValidationFailure            = "ValidationFailure"
)

// DomainError carries a stable code plus a human message. Domain errors are
// surfaced to the caller verbatim and are never retried.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

func NewNotAuthenticatedError(message string) *DomainError {
	return &DomainError{Kind: KindNotAuthenticated, Code: CodeNotAuthenticated, Message: message}
}

func NewNotAuthorizedError(code, message string) *DomainError {
	return &DomainError{Kind: KindNotAuthorized, Code: code, Message: message}
}

func NewUnprocessableError(code, message string) *DomainError {
	return &DomainError{Kind: KindUnprocessable, Code: code, Message: message}
}
