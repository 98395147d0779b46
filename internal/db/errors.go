package db

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("task not found")
	ErrStorage    = errors.New("storage failure")
)

// Error carries the kind of failure, the store operation, and the cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validationf(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func notFound(op string, id int64) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf("task %d not found", id)}
}

func storageErr(op string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, Err: err}
}
