package services

import (
	"errors"
	"fmt"
	"net/http"

	"edutech-backend-go/internal/db"
)

// Machine-readable error codes returned to clients in the "erro" field.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeDuplicateEntry     = "DUPLICATE_ENTRY"
	CodeAlreadyMember      = "ALREADY_MEMBER"
	CodeAlreadyInList      = "ALREADY_IN_LIST"
	CodeInvalidCode        = "INVALID_CODE"
	CodeRoleNotEligible    = "ROLE_NOT_ELIGIBLE"
	CodeForeignKey         = "FOREIGN_KEY_VIOLATION"
	CodeTransactionAborted = "TRANSACTION_ABORTED"
	CodeUnavailable        = "DATABASE_CONNECTION_ERROR"
	CodeCodeSpaceExhausted = "CODE_SPACE_EXHAUSTED"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

const msgInternal = "Erro interno do servidor."

// ServiceError is the single error type surfaced by the services. Message is
// safe to show to clients; Err keeps the underlying cause for logs only.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e ServiceError) Unwrap() error {
	return e.Err
}

// AsServiceError extracts a ServiceError from err, if there is one.
func AsServiceError(err error) (ServiceError, bool) {
	var serr ServiceError
	if errors.As(err, &serr) {
		return serr, true
	}
	return ServiceError{}, false
}

// HasCode reports whether err is a ServiceError with the given code.
func HasCode(err error, code string) bool {
	serr, ok := AsServiceError(err)
	return ok && serr.Code == code
}

func ErrValidation(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Code: CodeValidation, Message: msg}
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func ErrDuplicateEmail() error {
	return ServiceError{Status: http.StatusBadRequest, Code: CodeDuplicateEmail, Message: "Email já cadastrado."}
}

func ErrAlreadyMember(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Code: CodeAlreadyMember, Message: msg}
}

func ErrAlreadyInList() error {
	return ServiceError{Status: http.StatusBadRequest, Code: CodeAlreadyInList, Message: "Exercício já está na lista."}
}

func errCodeSpaceExhausted(attempts int) error {
	return ServiceError{
		Status:  http.StatusInternalServerError,
		Code:    CodeCodeSpaceExhausted,
		Message: msgInternal,
		Err:     fmt.Errorf("no free invite code after %d attempts", attempts),
	}
}

// storageError turns a raw driver error from a single-statement read or write
// into a ServiceError. ServiceErrors pass through untouched.
func storageError(op string, err error) error {
	return classify(op, err, CodeInternal)
}

// txError is storageError for composite writes: an unclassified failure is
// reported as an aborted transaction. Constraint violations keep their own
// codes since they say more about the cause than the abort does.
func txError(op string, err error) error {
	return classify(op, err, CodeTransactionAborted)
}

func classify(op string, err error, fallback string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsServiceError(err); ok {
		return err
	}
	cause := fmt.Errorf("%s: %w", op, err)
	switch db.Classify(err) {
	case db.KindUniqueViolation:
		return ServiceError{Status: http.StatusConflict, Code: CodeDuplicateEntry, Message: "Registro duplicado.", Err: cause}
	case db.KindForeignKeyViolation:
		return ServiceError{Status: http.StatusBadRequest, Code: CodeForeignKey, Message: "Referência inválida.", Err: cause}
	case db.KindUnavailable:
		return ServiceError{Status: http.StatusServiceUnavailable, Code: CodeUnavailable, Message: "Banco de dados indisponível.", Err: cause}
	}
	return ServiceError{Status: http.StatusInternalServerError, Code: fallback, Message: msgInternal, Err: cause}
}
