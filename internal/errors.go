package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidPeriod    ErrorCode = "INVALID_PERIOD"
	ErrCodeEmptyPayload     ErrorCode = "EMPTY_PAYLOAD"

	ErrCodeDuplicateCPF   ErrorCode = "DUPLICATE_CPF"
	ErrCodeDuplicateEmail ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateUser  ErrorCode = "DUPLICATE_USER"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeEmployeeNotFound   ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeStudentNotFound    ErrorCode = "STUDENT_NOT_FOUND"
	ErrCodeFinancialNotFound  ErrorCode = "FINANCIAL_NOT_FOUND"
	ErrCodeExpenseNotFound    ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeTimeRecordNotFound ErrorCode = "TIME_RECORD_NOT_FOUND"

	ErrCodeNotAuthenticated   ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeAccountPending     ErrorCode = "ACCOUNT_PENDING"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTooManyAttempts    ErrorCode = "TOO_MANY_ATTEMPTS"
	ErrCodePermissionDenied   ErrorCode = "PERMISSION_DENIED"
	ErrCodeRoleNotAllowed     ErrorCode = "ROLE_NOT_ALLOWED"
	ErrCodeProtectedAccount   ErrorCode = "PROTECTED_ACCOUNT"

	ErrCodeAlreadyPaid       ErrorCode = "ALREADY_PAID"
	ErrCodeCheckInClosed     ErrorCode = "CHECKIN_CLOSED"
	ErrCodeAlreadyCheckedIn  ErrorCode = "ALREADY_CHECKED_IN"
	ErrCodeTokenAlreadyUsed  ErrorCode = "TOKEN_ALREADY_USED"
	ErrCodeIdentityMismatch  ErrorCode = "IDENTITY_MISMATCH"
	ErrCodeAttachmentMissing ErrorCode = "ATTACHMENT_MISSING"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// GenericErrorMessage is the only text an unexpected failure ever exposes.
const GenericErrorMessage = "Erro interno do servidor. Tente novamente."

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// FieldErrors returns the per-field messages attached to a validation or
// conflict error, or nil.
func (e *AppError) FieldErrors() FieldErrors {
	if fe, ok := e.Details.(FieldErrors); ok && len(fe) > 0 {
		return fe
	}
	return nil
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// Is matches on Code so that sentinel values compare equal to the copies
// produced by WithCause and WithDetails.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// FieldErrors maps a payload field to the messages describing what is wrong with it.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

func (f FieldErrors) Fields() []string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func (f FieldErrors) String() string {
	parts := make([]string, 0, len(f))
	for _, field := range f.Fields() {
		parts = append(parts, field+": "+strings.Join(f[field], ", "))
	}
	return strings.Join(parts, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string) *AppError {
	return NewValidationErrors(FieldErrors{field: {message}})
}

func NewValidationErrors(fields FieldErrors) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Dados inválidos. Verifique os campos destacados.",
		StatusCode: http.StatusBadRequest,
		Details:    fields,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewTooManyRequestsError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

var (
	ErrNotAuthenticated   = NewUnauthorizedError("Usuário não autenticado", ErrCodeNotAuthenticated)
	ErrInvalidToken       = NewUnauthorizedError("Token inválido ou expirado", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token inválido ou expirado", ErrCodeTokenExpired)
	ErrPermissionDenied   = NewForbiddenError("Você não tem permissão para realizar esta ação", ErrCodePermissionDenied)
	ErrPermissionCheck    = NewInternalError("Erro ao verificar permissões", nil)
	ErrInvalidCredentials = NewUnauthorizedError("E-mail ou senha incorretos", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("Usuário inativo. Procure a recepção.", ErrCodeUserInactive)
	ErrAccountPending     = NewForbiddenError("Conta ainda não confirmada. Verifique o link de confirmação.", ErrCodeAccountPending)
	ErrTooManyAttempts    = NewTooManyRequestsError("Muitas tentativas de login. Aguarde alguns minutos.", ErrCodeTooManyAttempts)

	ErrUserNotFound       = NewNotFoundError("Usuário não encontrado", ErrCodeUserNotFound)
	ErrEmployeeNotFound   = NewNotFoundError("Funcionário não encontrado", ErrCodeEmployeeNotFound)
	ErrStudentNotFound    = NewNotFoundError("Aluno não encontrado", ErrCodeStudentNotFound)
	ErrFinancialNotFound  = NewNotFoundError("Não foi possível localizar seus dados financeiros", ErrCodeFinancialNotFound)
	ErrExpenseNotFound    = NewNotFoundError("Despesa não encontrada", ErrCodeExpenseNotFound)
	ErrTimeRecordNotFound = NewNotFoundError("Registro de ponto não encontrado", ErrCodeTimeRecordNotFound)

	ErrProtectedAccount = NewForbiddenError("Não é possível desativar usuários administradores", ErrCodeProtectedAccount)
)

// IsAppError unwraps err looking for an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
