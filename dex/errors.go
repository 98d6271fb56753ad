package dex

import (
	"errors"
	"fmt"
)

// ErrQuoteFailed is matched by every error a quote adapter returns
var ErrQuoteFailed = errors.New("quote failed")

// QuoteError records which contract method failed
type QuoteError struct {
	Protocol string
	Method   string
	Err      error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Protocol, e.Method, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// Is reports ErrQuoteFailed as a match so callers need not know the concrete type
func (e *QuoteError) Is(target error) bool {
	return target == ErrQuoteFailed
}

// NewQuoteError wraps err, keeping nil as nil
func NewQuoteError(protocol, method string, err error) error {
	if err == nil {
		return nil
	}
	return &QuoteError{Protocol: protocol, Method: method, Err: err}
}
