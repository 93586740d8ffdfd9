package errors

import "fmt"

// Error codes
const (
	CodeCatalogError      = "CATALOG_ERROR"
	CodeInvalidCoordinate = "INVALID_COORDINATE"
	CodeValidation        = "VALIDATION_ERROR"
	CodeCache             = "CACHE_ERROR"
	CodeService           = "SERVICE_ERROR"
	CodeHost              = "HOST_ERROR"
)

type CatalogError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

func NewCatalogError(message, code string, context map[string]any) *CatalogError {
	return &CatalogError{
		Message: message,
		Code:    code,
		Context: context,
	}
}

func (e *CatalogError) WithCause(cause error) *CatalogError {
	e.Cause = cause
	return e
}

// InvalidCoordinateError reports a group, category or item number that the item database does not know.
type InvalidCoordinateError struct {
	*CatalogError
	GroupNo    int
	CategoryNo int
	ItemNo     int
	Field      string
}

func NewInvalidCoordinateError(field string, groupNo, categoryNo, itemNo int) *InvalidCoordinateError {
	return &InvalidCoordinateError{
		CatalogError: &CatalogError{
			Message: fmt.Sprintf("invalid %s number in coordinate %d/%d/%d", field, groupNo, categoryNo, itemNo),
			Code:    CodeInvalidCoordinate,
			Context: map[string]any{
				"field":    field,
				"group":    groupNo,
				"category": categoryNo,
				"item":     itemNo,
			},
		},
		GroupNo:    groupNo,
		CategoryNo: categoryNo,
		ItemNo:     itemNo,
		Field:      field,
	}
}

type ValidationError struct {
	*CatalogError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		CatalogError: &CatalogError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*CatalogError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		CatalogError: &CatalogError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*CatalogError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		CatalogError: &CatalogError{
			Message: message,
			Code:    CodeService,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// HostError is returned by the studio client when the host refuses or fails to materialize an item.
type HostError struct {
	*CatalogError
	StatusCode int
}

func NewHostError(message string, statusCode int, context map[string]any) *HostError {
	return &HostError{
		CatalogError: &CatalogError{
			Message: message,
			Code:    CodeHost,
			Context: context,
		},
		StatusCode: statusCode,
	}
}

func (e *HostError) WithCause(cause error) *HostError {
	e.Cause = cause
	return e
}
