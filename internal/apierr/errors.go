// Package apierr holds the error taxonomy shared by the auth, strategy,
// trading and transport layers. Every error carries a Kind so callers can
// match with errors.Is against the exported sentinels and inspect details
// with errors.As.
package apierr

import (
	"fmt"
	"strings"
)

type AuthKind string

const (
	ExchangeFailed    AuthKind = "exchange_failed"
	NoRefreshToken    AuthKind = "no_refresh_token"
	MalformedResponse AuthKind = "malformed_response"
	MissingGrant      AuthKind = "missing_grant"
)

// AuthError reports a failed token exchange. Status and Body are set when
// the token endpoint answered with a non-2xx response.
type AuthError struct {
	Kind   AuthKind
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString("auth: ")
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any AuthError with the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

type ValidationKind string

const (
	UnsupportedAssetType     ValidationKind = "unsupported_asset_type"
	UnknownStrategy          ValidationKind = "unknown_strategy"
	MissingParameter         ValidationKind = "missing_parameter"
	InvalidParameter         ValidationKind = "invalid_parameter"
	PaperStatusUnsupported   ValidationKind = "paper_status_unsupported"
	PaperEndpointUnavailable ValidationKind = "paper_endpoint_unavailable"
)

// ValidationError is raised before any network call.
type ValidationError struct {
	Kind  ValidationKind
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation: ")
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		b.WriteString(" field=")
		b.WriteString(e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value=%q", e.Value)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// HTTPError carries the status and (truncated) body of a non-2xx response.
type HTTPError struct {
	Method  string
	URL     string
	Status  int
	Body    string
	Message string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, msg)
}

// Temporary reports whether the failure is worth a caller-side retry.
// Nothing in this module retries on its own.
func (e *HTTPError) Temporary() bool {
	return e.Status == 429 || e.Status >= 500
}

var (
	ErrExchangeFailed    = &AuthError{Kind: ExchangeFailed}
	ErrNoRefreshToken    = &AuthError{Kind: NoRefreshToken}
	ErrMalformedResponse = &AuthError{Kind: MalformedResponse}
	ErrMissingGrant      = &AuthError{Kind: MissingGrant}

	ErrUnsupportedAssetType     = &ValidationError{Kind: UnsupportedAssetType}
	ErrUnknownStrategy          = &ValidationError{Kind: UnknownStrategy}
	ErrMissingParameter         = &ValidationError{Kind: MissingParameter}
	ErrInvalidParameter         = &ValidationError{Kind: InvalidParameter}
	ErrPaperStatusUnsupported   = &ValidationError{Kind: PaperStatusUnsupported}
	ErrPaperEndpointUnavailable = &ValidationError{Kind: PaperEndpointUnavailable}
)

func Missing(field string) error {
	return &ValidationError{Kind: MissingParameter, Field: field}
}

func Invalid(field, value, msg string) error {
	return &ValidationError{Kind: InvalidParameter, Field: field, Value: value, Msg: msg}
}
