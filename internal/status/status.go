// Package status classifies errors by the kind of problem that caused
// them and maps those kinds to process exit codes.
package status

import (
	"errors"
	"fmt"
)

// Exit codes shared by every tool
const (
	GoodRet     = 0
	InputError  = 1
	IOError     = 2
	InvalidData = 3
)

// Kind is the class of problem an Error reports
type Kind int

const (
	// Input covers invalid flags and configuration
	Input Kind = iota
	// IO covers missing or unreadable files and failed commands
	IO
	// Data covers files that were read but whose content is wrong
	Data
)

func (k Kind) String() string {
	return []string{
		"invalid input",
		"problems reading file",
		"problems reading data",
	}[k]
}

// Code returns the exit code for k
func (k Kind) Code() int {
	switch k {
	case IO:
		return IOError
	case Data:
		return InvalidData
	default:
		return InputError
	}
}

// Error is an error tagged with a Kind
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error returns Msg, which already includes any wrapped cause, or the
// cause's text when Msg is empty.
func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf returns an Error of kind k with a formatted message. A %w verb
// in format wraps its operand as usual.
func Errorf(k Kind, format string, a ...any) error {
	err := fmt.Errorf(format, a...)
	return &Error{Kind: k, Msg: err.Error(), Err: errors.Unwrap(err)}
}

// Wrap tags err with kind k. A nil err stays nil.
func Wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: err}
}

// KindOf reports the Kind of the outermost Error in err's chain and
// whether one was found.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return Input, false
}

// Code maps err to an exit code. Errors without a Kind are input
// errors.
func Code(err error) int {
	if err == nil {
		return GoodRet
	}
	k, _ := KindOf(err)
	return k.Code()
}
