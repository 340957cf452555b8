// Package apierror classifies failed HTTP exchanges with the catalog service
// into a closed set of kinds, each mapped to one user-facing message and one
// recovery action.
package apierror

import (
	"fmt"
	"net"
	"syscall"

	"github.com/go-faster/errors"
)

// Kind is the classification of a failed exchange.
type Kind string

const (
	KindNetwork  Kind = "NETWORK_ERROR"
	KindTimeout  Kind = "TIMEOUT_ERROR"
	KindServer   Kind = "SERVER_ERROR"
	KindNotFound Kind = "NOT_FOUND"
	KindClient   Kind = "CLIENT_ERROR"
	KindUnknown  Kind = "UNKNOWN_ERROR"
)

// Action is the recovery the user is offered for a failure.
type Action string

const (
	// ActionRetry re-issues the same read.
	ActionRetry Action = "retry"
	// ActionGoBack navigates away; retrying cannot fix the request.
	ActionGoBack Action = "go_back"
)

var messages = map[Kind]string{
	KindNetwork:  "Network connection failed. Please try again later.",
	KindTimeout:  "Request timed out. Please try again.",
	KindServer:   "Server is temporarily unavailable. Please try again later.",
	KindNotFound: "The requested information could not be found.",
	KindClient:   "Invalid request. Please check your input.",
	KindUnknown:  "Failed to load information. Please try again.",
}

// Message returns the user-facing message for the kind.
func (k Kind) Message() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return messages[KindUnknown]
}

// Action returns the recommended recovery for the kind.
func (k Kind) Action() Action {
	switch k {
	case KindNotFound, KindClient:
		return ActionGoBack
	default:
		return ActionRetry
	}
}

// Classification is the result of classifying an error.
type Classification struct {
	Kind    Kind
	Message string
	Action  Action
}

// StatusError is returned when the catalog service answered with a response
// that could not be used: a non-2xx status, or a 2xx body that failed to decode.
type StatusError struct {
	Status int
	Method string
	URL    string
	Body   []byte
	// Err is set when a response arrived but its body could not be decoded.
	Err error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Classify maps err to exactly one kind and the kind's message and action.
// It is a pure function of err.
//
// KindTimeout is never produced: an exchange that timed out has no response
// and is reported as a network failure.
func Classify(err error) Classification {
	k := KindOf(err)
	return Classification{
		Kind:    k,
		Message: k.Message(),
		Action:  k.Action(),
	}
}

// KindOf applies the classification rules in priority order.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetwork
	}
	if isConnectivity(err) {
		return KindNetwork
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		// No response was received at all.
		return KindNetwork
	}

	switch s := statusErr.Status; {
	case s == 404:
		return KindNotFound
	case s >= 500:
		return KindServer
	case s >= 400:
		return KindClient
	}
	return KindUnknown
}

func isConnectivity(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}
