// Package apperr holds the error kinds shared by the tutor services and
// their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnknown       Kind = ""
	KindConfiguration Kind = "configuration"
	KindInput         Kind = "input"
	KindConversion    Kind = "conversion"
	KindRecognition   Kind = "recognition"
	KindGeneration    Kind = "generation"
	KindSynthesis     Kind = "synthesis"
	KindPersistence   Kind = "persistence"
)

// Error tags a cause with the stage that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op
	}
	if e.Timeout {
		msg += " timed out"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Timeout(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Timeout: true, Err: err}
}

func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether resubmitting the same request may succeed.
func Retryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Timeout
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case KindOf(err) == KindInput:
		return http.StatusBadRequest
	case Retryable(err):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// Message is the text shown to API clients. Causes stay in the logs.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal Server Error"
	}
	if e.Kind == KindInput {
		return e.Error()
	}
	if e.Timeout {
		return "upstream service timed out, please retry"
	}
	switch e.Kind {
	case KindConversion:
		return "audio conversion failed"
	case KindRecognition:
		return "speech recognition failed"
	case KindGeneration:
		return "tutor reply failed"
	case KindSynthesis:
		return "speech synthesis failed"
	}
	return "Internal Server Error"
}
