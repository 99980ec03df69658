// Package cqlerr holds the closed error taxonomy surfaced by a Session and the
// classifier that maps transport failures onto it.
package cqlerr

import (
	"errors"
	"fmt"
)

// Condition is a failure condition reported by the protocol layer.
type Condition int

const (
	CondUnknown Condition = iota
	CondNotFound
	CondInvalidRequest
	CondUnavailable
	CondTimedOut
	CondAuthentication
	CondAuthorization
	CondSchemaDisagreement
	CondTransport
	// CondProtocol is a protocol failure that carries no more specific condition.
	CondProtocol
)

// ProtocolError is the structured error value a transport returns.
type ProtocolError struct {
	Condition Condition
	Message   string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// NewProtocolError returns a ProtocolError with a formatted message.
func NewProtocolError(c Condition, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Condition: c, Message: fmt.Sprintf(format, args...)}
}

// Kind is the error kind delivered to callers.
type Kind int

const (
	GeneralError Kind = iota
	NotFound
	InvalidRequest
	Unavailable
	TimedOut
	AuthenticationError
	AuthorizationError
	SchemaDisagreement
	TransportError
)

var kindNames = map[Kind]string{
	GeneralError:        "general_error",
	NotFound:            "not_found",
	InvalidRequest:      "invalid_request",
	Unavailable:         "unavailable",
	TimedOut:            "timed_out",
	AuthenticationError: "authentication_error",
	AuthorizationError:  "authorization_error",
	SchemaDisagreement:  "schema_disagreement",
	TransportError:      "transport_error",
}

// Kinds lists every kind of the taxonomy.
var Kinds = []Kind{
	NotFound,
	InvalidRequest,
	Unavailable,
	TimedOut,
	AuthenticationError,
	AuthorizationError,
	SchemaDisagreement,
	TransportError,
	GeneralError,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[GeneralError]
}

// Error is the only failure type returned across the Session boundary.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

var conditionKinds = map[Condition]Kind{
	CondNotFound:           NotFound,
	CondInvalidRequest:     InvalidRequest,
	CondUnavailable:        Unavailable,
	CondTimedOut:           TimedOut,
	CondAuthentication:     AuthenticationError,
	CondAuthorization:      AuthorizationError,
	CondSchemaDisagreement: SchemaDisagreement,
	CondTransport:          TransportError,
	CondProtocol:           GeneralError,
	CondUnknown:            GeneralError,
}

// KindOf returns the kind a condition is classified as. Unrecognised
// conditions are general errors.
func KindOf(c Condition) Kind {
	if k, ok := conditionKinds[c]; ok {
		return k
	}
	return GeneralError
}

// Classify converts any error into an *Error. It never returns a non-nil
// result for a nil error and never fails for a non-nil one.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var perr *ProtocolError
	if errors.As(err, &perr) {
		return &Error{Kind: KindOf(perr.Condition), Message: perr.Message}
	}

	return &Error{Kind: GeneralError, Message: err.Error()}
}

// Is reports whether err classifies as the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return Classify(err).Kind == kind
}
