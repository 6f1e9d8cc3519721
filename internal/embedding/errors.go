package embedding

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel errors matched by EmbedError.Is.
var (
	// ErrAuthFatal means the provider refused the credentials or the account.
	// Retrying will not help; the enclosing operation must stop.
	ErrAuthFatal = errors.New("embedding provider authentication failed")

	// ErrEmpty means the provider returned no vector for the input, or the input was blank.
	ErrEmpty = errors.New("empty embedding")

	// ErrTransient covers network, rate limit and server-side failures.
	ErrTransient = errors.New("transient embedding failure")

	// ErrDimensionMismatch means the provider returned a vector of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Kind classifies an embedding failure.
type Kind int

const (
	KindTransient Kind = iota
	KindEmpty
	KindAuthFatal
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindAuthFatal:
		return "auth_fatal"
	default:
		return "transient"
	}
}

// EmbedError is returned by every Embedder method that fails.
type EmbedError struct {
	Kind  Kind
	Model string
	Err   error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embed with %s (%s): %v", e.Model, e.Kind, e.Err)
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}

// Is lets callers match on the kind sentinels with errors.Is.
func (e *EmbedError) Is(target error) bool {
	switch target {
	case ErrAuthFatal:
		return e.Kind == KindAuthFatal
	case ErrEmpty:
		return e.Kind == KindEmpty
	case ErrTransient:
		return e.Kind == KindTransient
	}
	return false
}

// KindOf returns the failure kind of err. Errors that are not EmbedErrors count as transient.
func KindOf(err error) Kind {
	var embedErr *EmbedError
	if errors.As(err, &embedErr) {
		return embedErr.Kind
	}
	if errors.Is(err, ErrAuthFatal) {
		return KindAuthFatal
	}
	return KindTransient
}

// IsAuthFatal reports whether err must terminate the enclosing operation.
func IsAuthFatal(err error) bool {
	return err != nil && errors.Is(err, ErrAuthFatal)
}

// classifyError wraps a provider error with its kind.
func classifyError(model string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindTransient
	if isAuthError(err) {
		kind = KindAuthFatal
	}
	return &EmbedError{Kind: kind, Model: model, Err: err}
}

// authPatterns are provider error fragments that mean the credentials or the
// account cannot serve requests. Rate limiting is deliberately absent.
var authPatterns = []string{
	"invalid api key",
	"incorrect api key",
	"invalid_api_key",
	"authentication",
	"unauthorized",
	"permission denied",
	"insufficient_quota",
	"billing",
	"credit balance",
}

// authStatus matches a 401 or 403 reported as an HTTP status, not digits that
// happen to appear in a request id or a port.
var authStatus = regexp.MustCompile(`(?:status(?: code)?|http(?:/[\d.]+)?)\s*:?\s*40[13]\b`)

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range authPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return authStatus.MatchString(msg)
}
