// Package errors provides standardized error handling across the domain
// discovery service.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidSortField ErrorCode = "INVALID_SORT_FIELD"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDomainNotFound           ErrorCode = "DOMAIN_NOT_FOUND"
	ErrCodeDuplicateDomain          ErrorCode = "DUPLICATE_DOMAIN"
	ErrCodeResourceNotFound         ErrorCode = "RESOURCE_NOT_FOUND"

	ErrCodeScrapeFailed       ErrorCode = "SCRAPE_FAILED"
	ErrCodeScrapeSourceDown   ErrorCode = "SCRAPE_SOURCE_DOWN"
	ErrCodeRDAPLookupFailed   ErrorCode = "RDAP_LOOKUP_FAILED"
	ErrCodeWaybackLookupFailed ErrorCode = "WAYBACK_LOOKUP_FAILED"
	ErrCodeWhoisLookupFailed  ErrorCode = "WHOIS_LOOKUP_FAILED"

	ErrCodeSearchIndexFailed             ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"

	ErrCodeAlertSendFailed ErrorCode = "ALERT_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSortFieldError creates a non-retryable sort whitelist error.
func NewInvalidSortFieldError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSortField,
		Message:   "Sort field is not allowed",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDomainNotFoundError creates a non-retryable not-found error.
func NewDomainNotFoundError(domainID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeDomainNotFound,
		Message:   "Domain not found",
		Details:   fmt.Sprintf("domainId: %d", domainID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateDomainError creates a non-retryable duplicate domain error.
func NewDuplicateDomainError(domainName, tld string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateDomain,
		Message:   "Domain already exists",
		Details:   fmt.Sprintf("domain: %s.%s", domainName, tld),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable not-found error for
// portfolio items and alert subscriptions.
func NewResourceNotFoundError(resource string, id int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %d", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScrapeFailedError creates a retryable scrape error.
func NewScrapeFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScrapeFailed,
		Message:   "Domain scrape run failed",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewScrapeSourceDownError creates a retryable scrape source availability error.
func NewScrapeSourceDownError(source string, statusCode int) *StandardError {
	return &StandardError{
		Code:      ErrCodeScrapeSourceDown,
		Message:   "Scrape source is unavailable",
		Details:   fmt.Sprintf("source: %s, status: %d", source, statusCode),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRDAPLookupFailedError creates a retryable RDAP lookup error.
func NewRDAPLookupFailedError(domain string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRDAPLookupFailed,
		Message:   "RDAP registration lookup failed",
		Details:   fmt.Sprintf("domain: %s, error: %s", domain, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWaybackLookupFailedError creates a retryable Wayback Machine lookup error.
func NewWaybackLookupFailedError(domain string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWaybackLookupFailed,
		Message:   "Wayback Machine lookup failed",
		Details:   fmt.Sprintf("domain: %s, error: %s", domain, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWhoisLookupFailedError creates a retryable WHOIS backlink lookup error.
func NewWhoisLookupFailedError(domain string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWhoisLookupFailed,
		Message:   "WHOIS backlink lookup failed",
		Details:   fmt.Sprintf("domain: %s, error: %s", domain, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchIndexFailedError creates a retryable search index error.
func NewSearchIndexFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   "Search index operation failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Search query failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlertSendFailedError creates a retryable alert delivery error.
func NewAlertSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlertSendFailed,
		Message:   "Alert delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Integration
// ==========================

// HTTPStatus maps an error code to the status the REST layer responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidSortField:
		return http.StatusBadRequest
	case ErrCodeDomainNotFound, ErrCodeResourceNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateDomain:
		return http.StatusConflict
	case ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeScrapeSourceDown, ErrCodeDatabaseConnectionFailed,
		ErrCodeElasticsearchConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended retry count for background jobs.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeAlertSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeScrapeFailed,
		ErrCodeScrapeSourceDown:
		return 2 // Partial retry for timeouts and flaky sources

	case ErrCodeRDAPLookupFailed,
		ErrCodeWaybackLookupFailed,
		ErrCodeWhoisLookupFailed:
		return 1 // Enrichment degrades gracefully, one retry is enough

	default:
		return 0 // Business errors: no retry
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "DOMAIN"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "SCRAPE"):
		return "SCRAPER"
	case strings.Contains(codeStr, "RDAP") || strings.Contains(codeStr, "WAYBACK") || strings.Contains(codeStr, "WHOIS"):
		return "ENRICHMENT"
	case strings.Contains(codeStr, "ALERT"):
		return "ALERT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
