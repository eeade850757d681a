package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "AUTHORIZATION_ERROR"
	ErrorTypeInvalidState ErrorType = "INVALID_STATE"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeDependency   ErrorType = "DEPENDENCY_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingPhoto     ErrorCode = "MISSING_PHOTO"
	ErrCodeCompanionPhoto   ErrorCode = "COMPANION_PHOTO_REQUIRED"

	ErrCodeGatePassNotFound   ErrorCode = "GATE_PASS_NOT_FOUND"
	ErrCodeActorNotFound      ErrorCode = "ACTOR_NOT_FOUND"
	ErrCodeDepartmentNotFound ErrorCode = "DEPARTMENT_NOT_FOUND"

	ErrCodeWrongDepartment ErrorCode = "WRONG_DEPARTMENT"
	ErrCodeWrongRole       ErrorCode = "WRONG_ROLE"

	ErrCodeInvalidState   ErrorCode = "INVALID_STATE"
	ErrCodeNotApprovedYet ErrorCode = "NOT_APPROVED_YET"
	ErrCodeAlreadyExited  ErrorCode = "ALREADY_EXITED"

	ErrCodeDuplicateEmail     ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateName      ErrorCode = "DUPLICATE_NAME"
	ErrCodeRoleDepartment     ErrorCode = "INVALID_ROLE_DEPARTMENT_PAIRING"
	ErrCodeActorNotEligible   ErrorCode = "ACTOR_NOT_ELIGIBLE"
	ErrCodeNoHeadAssigned     ErrorCode = "NO_HEAD_ASSIGNED"
	ErrCodeHasDependents      ErrorCode = "HAS_ACTIVE_DEPENDENTS"
	ErrCodePendingGatePasses  ErrorCode = "HAS_PENDING_GATE_PASSES"
	ErrCodeIDGenExhausted     ErrorCode = "ID_GENERATION_EXHAUSTED"
	ErrCodeConcurrentUpdate   ErrorCode = "CONCURRENT_UPDATE"
	ErrCodeImageStoreFailure  ErrorCode = "IMAGE_STORE_FAILURE"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
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

func NewAuthorizationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewInvalidStateError maps to 409: the request was well formed but the
// pass is not in a state that allows the transition.
func NewInvalidStateError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
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

func NewDependencyError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDependency,
		Code:       ErrCodeImageStoreFailure,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrGatePassNotFound   = NewNotFoundError("Gate pass not found", ErrCodeGatePassNotFound)
	ErrActorNotFound      = NewNotFoundError("Actor not found", ErrCodeActorNotFound)
	ErrDepartmentNotFound = NewNotFoundError("Department not found", ErrCodeDepartmentNotFound)

	ErrWrongDepartment = NewAuthorizationError("You can only decide requests from your own department", ErrCodeWrongDepartment)
	ErrWrongRole       = NewAuthorizationError("Actor role is not allowed to perform this operation", ErrCodeWrongRole)

	ErrNotPendingDepartment  = NewInvalidStateError("This request is not pending department approval", ErrCodeInvalidState)
	ErrNotPendingInstitution = NewInvalidStateError("This request is not pending institution approval", ErrCodeInvalidState)
	ErrNotApprovedYet        = NewInvalidStateError("Gate pass must be fully approved before exit confirmation", ErrCodeNotApprovedYet)
	ErrAlreadyExited         = NewInvalidStateError("Exit already confirmed for this gate pass", ErrCodeAlreadyExited)

	ErrDuplicateEmail        = NewConflictError("Email already in use", ErrCodeDuplicateEmail)
	ErrDuplicateName         = NewConflictError("Department name already exists", ErrCodeDuplicateName)
	ErrRoleDepartment        = NewValidationError("Department may only be set for department heads", ErrCodeRoleDepartment)
	ErrActorNotEligible      = NewValidationError("Actor is not a department head", ErrCodeActorNotEligible)
	ErrNoHeadAssigned        = NewInvalidStateError("No head assigned to this department", ErrCodeNoHeadAssigned)
	ErrHasDependents         = NewConflictError("Department head still has pending gate passes in their department", ErrCodeHasDependents)
	ErrHasPendingGatePasses  = NewConflictError("Department still has pending or approved gate passes", ErrCodePendingGatePasses)
	ErrIDGenerationExhausted = NewInternalError("could not generate a unique gate pass id", nil)
	ErrConcurrentUpdate      = NewConflictError("Gate pass was modified concurrently, please retry", ErrCodeConcurrentUpdate)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewAuthorizationError("Account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
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
