// Package failure classifies errors returned by the remote generative service
// into quota exhaustion, transient server trouble and everything else.
package failure

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Kind is the retry-relevant category of a failure.
type Kind int

const (
	Fatal Kind = iota
	QuotaExhausted
	TransientServer
)

func (k Kind) String() string {
	switch k {
	case QuotaExhausted:
		return "quota_exhausted"
	case TransientServer:
		return "transient_server"
	default:
		return "fatal"
	}
}

// Retryable reports whether the retry executor may replay an operation that
// failed with this kind.
func (k Kind) Retryable() bool {
	return k == QuotaExhausted || k == TransientServer
}

// Error is a classified failure. Values are produced by a Classifier.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// WithMessage returns a copy carrying a different user-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// StatusCoder is implemented by transport errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

type permanent interface {
	Permanent() bool
}

// Rule maps any of its signals, matched case-insensitively as substrings of
// the error text, to a kind.
type Rule struct {
	Kind    Kind
	Signals []string
}

// DefaultRules is the match list used by Default. Quota rules come first so a
// message mentioning both a quota and a 5xx status is treated as quota.
var DefaultRules = []Rule{
	{Kind: QuotaExhausted, Signals: []string{"429", "resource_exhausted", "resource exhausted", "quota", "rate limit", "rate-limit", "too many requests"}},
	{Kind: TransientServer, Signals: []string{"500", "502", "503", "504", "internal error", "unavailable", "deadline", "timeout", "timed out", "overloaded"}},
}

// Classifier turns arbitrary errors into classified failures.
type Classifier struct {
	Rules []Rule
}

// Default is the classifier used by the retry executor and the video poll
// loop unless one is injected.
var Default = &Classifier{Rules: DefaultRules}

// Classify maps err to a classified failure. A nil error yields nil. Errors
// that are already classified are returned unchanged.
func Classify(err error) *Error {
	return Default.Classify(err)
}

// Classify maps err to a classified failure. A nil error yields nil.
func (c *Classifier) Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return &Error{Kind: c.kindOf(err), Message: err.Error(), Cause: err}
}

func (c *Classifier) kindOf(err error) Kind {
	var p permanent
	if errors.As(err, &p) && p.Permanent() {
		return Fatal
	}
	if errors.Is(err, context.Canceled) {
		return Fatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TransientServer
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		status := sc.HTTPStatus()
		switch {
		case status == http.StatusTooManyRequests:
			return QuotaExhausted
		case status >= http.StatusBadRequest:
			if kind, ok := c.match(err.Error()); ok && kind == QuotaExhausted {
				return kind
			}
			if status >= http.StatusInternalServerError {
				return TransientServer
			}
			return Fatal
		}
	}
	if kind, ok := c.match(err.Error()); ok {
		return kind
	}
	return Fatal
}

func (c *Classifier) match(msg string) (Kind, bool) {
	lower := strings.ToLower(msg)
	for _, rule := range c.Rules {
		for _, signal := range rule.Signals {
			if signal != "" && strings.Contains(lower, strings.ToLower(signal)) {
				return rule.Kind, true
			}
		}
	}
	return Fatal, false
}

// KindOf returns the kind of err, classifying it with Default if needed.
func KindOf(err error) Kind {
	if c := Classify(err); c != nil {
		return c.Kind
	}
	return Fatal
}

// IsQuota reports whether err is, or classifies as, quota exhaustion.
func IsQuota(err error) bool {
	return err != nil && KindOf(err) == QuotaExhausted
}
